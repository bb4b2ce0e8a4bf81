package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/debarghya18/local-RAG/internal/model"
	"github.com/debarghya18/local-RAG/internal/rag"
)

// EmbeddingRepository is the durable vector index. It satisfies
// rag.VectorIndex: one row per (chunk, model) pair, returned in insertion
// order so ranking stays deterministic across restarts.
type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

func (r *EmbeddingRepository) Upsert(ctx context.Context, entry rag.IndexEntry) error {
	row := model.DocumentEmbedding{
		DocumentID: entry.DocumentID,
		ChunkID:    entry.ChunkID,
		ModelID:    entry.ModelID,
	}
	row.SetVector(entry.Vector)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chunk_id"}, {Name: "model_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vector"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert document embedding failed: %w", err)
	}
	return nil
}

func (r *EmbeddingRepository) VectorsFor(ctx context.Context, documentIDs []uint, modelID string) ([]rag.IndexEntry, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var rows []model.DocumentEmbedding
	err := r.db.WithContext(ctx).
		Where("document_id IN ? AND model_id = ?", documentIDs, modelID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list document embeddings failed: %w", err)
	}

	entries := make([]rag.IndexEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rag.IndexEntry{
			ChunkID:    rows[i].ChunkID,
			DocumentID: rows[i].DocumentID,
			ModelID:    rows[i].ModelID,
			Vector:     rows[i].VectorValues(),
		})
	}
	return entries, nil
}

func (r *EmbeddingRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentEmbedding{}).Error; err != nil {
		return fmt.Errorf("delete document embeddings failed: %w", err)
	}
	return nil
}
