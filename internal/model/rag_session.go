package model

import "time"

// RAGSession groups a fixed set of documents under a user-chosen title.
type RAGSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionDocument links a session to one of its documents.
type SessionDocument struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	SessionID  uint `gorm:"not null;uniqueIndex:idx_session_document,priority:1" json:"session_id"`
	DocumentID uint `gorm:"not null;uniqueIndex:idx_session_document,priority:2" json:"document_id"`
}
