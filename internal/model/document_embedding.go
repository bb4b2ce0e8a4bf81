package model

import (
	"encoding/json"
	"time"
)

// DocumentEmbedding stores one chunk's vector under one embedding-model
// identity. The (chunk_id, model_id) pair is unique; re-indexing replaces the
// prior vector. The vector is stored as a JSON array of float32 for
// portability, the same way chunk payloads travel over the wire.
type DocumentEmbedding struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	ChunkID    uint      `gorm:"not null;uniqueIndex:idx_embedding_chunk_model,priority:1" json:"chunk_id"`
	ModelID    string    `gorm:"size:100;not null;uniqueIndex:idx_embedding_chunk_model,priority:2" json:"model_id"`
	Vector     string    `gorm:"type:mediumtext;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// VectorValues returns the parsed vector; nil on parse error or empty column.
func (e *DocumentEmbedding) VectorValues() []float32 {
	if e.Vector == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Vector), &v)
	return v
}

// SetVector stores the vector as JSON.
func (e *DocumentEmbedding) SetVector(vec []float32) {
	if len(vec) == 0 {
		e.Vector = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Vector = string(b)
}
