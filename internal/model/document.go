package model

import "time"

// Document processing lifecycle states.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Title        string    `gorm:"size:256;not null" json:"title"`
	Status       string    `gorm:"size:16;not null;default:pending" json:"status"`
	StatusReason string    `gorm:"size:512" json:"status_reason,omitempty"`
	PageCount    int       `json:"page_count"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
