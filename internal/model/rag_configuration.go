package model

import "time"

// RAGConfiguration holds one user's retrieval tunables. Created lazily with
// defaults on first use, mutable in place.
type RAGConfiguration struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ModelName           string    `gorm:"size:100;not null" json:"model_name"`
	ChunkSize           int       `gorm:"not null" json:"chunk_size"`
	ChunkOverlap        int       `gorm:"not null" json:"chunk_overlap"`
	MaxTokens           int       `gorm:"not null" json:"max_tokens"`
	Temperature         float64   `gorm:"not null" json:"temperature"`
	TopK                int       `gorm:"not null" json:"top_k"`
	SimilarityThreshold float64   `gorm:"not null" json:"similarity_threshold"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
