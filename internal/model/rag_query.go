package model

import (
	"encoding/json"
	"time"
)

// QuerySource is one entry in a query record's source list. Preview is capped
// at 200 characters so records stay bounded regardless of chunk size.
type QuerySource struct {
	DocumentID      uint    `json:"document_id"`
	DocumentTitle   string  `json:"document_title"`
	ChunkID         uint    `json:"chunk_id"`
	ChunkIndex      int     `json:"chunk_index"`
	PageNumber      int     `json:"page_number"`
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
	Preview         string  `json:"preview"`
}

// QueryMetadata is the audit snapshot taken at query time, so later reads do
// not depend on the user's mutable configuration.
type QueryMetadata struct {
	ChunksFound int            `json:"chunks_found"`
	ChunksUsed  int            `json:"chunks_used"`
	Config      ConfigSnapshot `json:"config"`
}

type ConfigSnapshot struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	ModelID             string  `json:"model_id"`
}

// RAGQuery records one processed query. It is immutable after creation.
type RAGQuery struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"not null;index" json:"session_id"`
	QueryText      string    `gorm:"type:text;not null" json:"query_text"`
	ResponseText   string    `gorm:"type:text;not null" json:"response_text"`
	Sources        string    `gorm:"type:text" json:"-"`
	Metadata       string    `gorm:"type:text" json:"-"`
	ProcessingTime float64   `gorm:"not null" json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// RAGQueryView is the outward shape of a query record, with the JSON text
// columns parsed into their structured forms.
type RAGQueryView struct {
	ID             uint          `json:"id"`
	SessionID      uint          `json:"session_id"`
	QueryText      string        `json:"query_text"`
	ResponseText   string        `json:"response_text"`
	Sources        []QuerySource `json:"sources"`
	Metadata       QueryMetadata `json:"metadata"`
	ProcessingTime float64       `json:"processing_time"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (q *RAGQuery) View() RAGQueryView {
	sources := q.SourceList()
	if sources == nil {
		sources = []QuerySource{}
	}
	return RAGQueryView{
		ID:             q.ID,
		SessionID:      q.SessionID,
		QueryText:      q.QueryText,
		ResponseText:   q.ResponseText,
		Sources:        sources,
		Metadata:       q.MetadataSnapshot(),
		ProcessingTime: q.ProcessingTime,
		CreatedAt:      q.CreatedAt,
	}
}

func (q *RAGQuery) SourceList() []QuerySource {
	if q.Sources == "" {
		return nil
	}
	var list []QuerySource
	_ = json.Unmarshal([]byte(q.Sources), &list)
	return list
}

func (q *RAGQuery) SetSourceList(list []QuerySource) {
	if list == nil {
		list = []QuerySource{}
	}
	b, _ := json.Marshal(list)
	q.Sources = string(b)
}

func (q *RAGQuery) MetadataSnapshot() QueryMetadata {
	var meta QueryMetadata
	if q.Metadata != "" {
		_ = json.Unmarshal([]byte(q.Metadata), &meta)
	}
	return meta
}

func (q *RAGQuery) SetMetadata(meta QueryMetadata) {
	b, _ := json.Marshal(meta)
	q.Metadata = string(b)
}
