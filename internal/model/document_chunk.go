package model

import "time"

// DocumentChunk is one overlapping segment of a document's text. ChunkIndex is
// dense 0..n-1 within a document; PageNumber is the 1-based origin page.
type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index:idx_chunk_doc_seq,priority:1" json:"document_id"`
	ChunkIndex int       `gorm:"not null;index:idx_chunk_doc_seq,priority:2" json:"chunk_index"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CharCount  int       `gorm:"not null" json:"char_count"`
	WordCount  int       `gorm:"not null" json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
}
