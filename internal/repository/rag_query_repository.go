package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/debarghya18/local-RAG/internal/model"
)

type RAGQueryRepository struct {
	db *gorm.DB
}

func NewRAGQueryRepository(db *gorm.DB) *RAGQueryRepository {
	return &RAGQueryRepository{db: db}
}

func (r *RAGQueryRepository) Create(query *model.RAGQuery) error {
	if err := r.db.Create(query).Error; err != nil {
		return fmt.Errorf("create rag query failed: %w", err)
	}
	return nil
}

func (r *RAGQueryRepository) ListBySessionID(sessionID uint, limit int) ([]model.RAGQuery, error) {
	q := r.db.Where("session_id = ?", sessionID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []model.RAGQuery
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list rag queries failed: %w", err)
	}
	return list, nil
}

func (r *RAGQueryRepository) DeleteBySessionID(sessionID uint) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.RAGQuery{}).Error; err != nil {
		return fmt.Errorf("delete rag queries by session failed: %w", err)
	}
	return nil
}
