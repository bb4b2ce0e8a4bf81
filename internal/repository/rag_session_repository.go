package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debarghya18/local-RAG/internal/model"
)

type RAGSessionRepository struct {
	db *gorm.DB
}

func NewRAGSessionRepository(db *gorm.DB) *RAGSessionRepository {
	return &RAGSessionRepository{db: db}
}

func (r *RAGSessionRepository) Create(session *model.RAGSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create rag session failed: %w", err)
	}
	return nil
}

func (r *RAGSessionRepository) ListByUserID(userID uint) ([]model.RAGSession, error) {
	var list []model.RAGSession
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list rag sessions failed: %w", err)
	}
	return list, nil
}

func (r *RAGSessionRepository) GetByIDAndUserID(id, userID uint) (*model.RAGSession, error) {
	var session model.RAGSession
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rag session failed: %w", err)
	}
	return &session, nil
}

func (r *RAGSessionRepository) DeleteByIDAndUserID(id, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.RAGSession{}).Error; err != nil {
		return fmt.Errorf("delete rag session failed: %w", err)
	}
	return nil
}

// AddDocuments links documents into a session. The session's document set is
// fixed at creation, so this runs once per session.
func (r *RAGSessionRepository) AddDocuments(sessionID uint, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	links := make([]model.SessionDocument, 0, len(documentIDs))
	for _, docID := range documentIDs {
		links = append(links, model.SessionDocument{SessionID: sessionID, DocumentID: docID})
	}
	if err := r.db.Create(&links).Error; err != nil {
		return fmt.Errorf("link session documents failed: %w", err)
	}
	return nil
}

func (r *RAGSessionRepository) DocumentIDs(sessionID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.SessionDocument{}).Where("session_id = ?", sessionID).Pluck("document_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list session document ids failed: %w", err)
	}
	return ids, nil
}

func (r *RAGSessionRepository) DeleteLinksBySessionID(sessionID uint) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.SessionDocument{}).Error; err != nil {
		return fmt.Errorf("delete session document links failed: %w", err)
	}
	return nil
}

// SessionIDsForDocument returns sessions referencing a document, so deleting
// a document can invalidate the affected session caches.
func (r *RAGSessionRepository) SessionIDsForDocument(documentID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.SessionDocument{}).Where("document_id = ?", documentID).Pluck("session_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sessions for document failed: %w", err)
	}
	return ids, nil
}

func (r *RAGSessionRepository) DeleteLinksByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.SessionDocument{}).Error; err != nil {
		return fmt.Errorf("delete document session links failed: %w", err)
	}
	return nil
}
