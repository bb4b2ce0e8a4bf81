package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debarghya18/local-RAG/internal/model"
)

type RAGConfigRepository struct {
	db *gorm.DB
}

func NewRAGConfigRepository(db *gorm.DB) *RAGConfigRepository {
	return &RAGConfigRepository{db: db}
}

func (r *RAGConfigRepository) GetByUserID(userID uint) (*model.RAGConfiguration, error) {
	var cfg model.RAGConfiguration
	if err := r.db.Where("user_id = ?", userID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rag configuration failed: %w", err)
	}
	return &cfg, nil
}

func (r *RAGConfigRepository) Create(cfg *model.RAGConfiguration) error {
	if err := r.db.Create(cfg).Error; err != nil {
		return fmt.Errorf("create rag configuration failed: %w", err)
	}
	return nil
}

func (r *RAGConfigRepository) Save(cfg *model.RAGConfiguration) error {
	if err := r.db.Save(cfg).Error; err != nil {
		return fmt.Errorf("save rag configuration failed: %w", err)
	}
	return nil
}
