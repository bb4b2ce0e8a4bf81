package app

import (
	"context"

	"github.com/debarghya18/local-RAG/internal/model"
	"github.com/debarghya18/local-RAG/internal/platform/rabbitmq"
	"github.com/debarghya18/local-RAG/internal/rag"
)

// Persistence interfaces consumed by the services. The repository package
// provides the MySQL-backed implementations.

type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
}

type DocumentStore interface {
	Create(doc *model.Document) error
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
	ListByUserID(userID uint) ([]model.Document, error)
	ListByIDs(ids []uint) ([]model.Document, error)
	UpdateStatus(id uint, status, reason string) error
	UpdateCounts(id uint, pageCount, chunkCount int) error
	DeleteByIDAndUserID(id, userID uint) error
}

type ChunkStore interface {
	CreateBatch(chunks []model.DocumentChunk) error
	ListByIDs(ids []uint) ([]model.DocumentChunk, error)
	ListByDocumentID(documentID uint) ([]model.DocumentChunk, error)
	DeleteByDocumentID(documentID uint) error
}

// VectorStore is the durable vector index plus the cleanup hook used when a
// document is deleted or re-processed.
type VectorStore interface {
	rag.VectorIndex
	DeleteByDocumentID(documentID uint) error
}

type SessionStore interface {
	Create(session *model.RAGSession) error
	ListByUserID(userID uint) ([]model.RAGSession, error)
	GetByIDAndUserID(id, userID uint) (*model.RAGSession, error)
	DeleteByIDAndUserID(id, userID uint) error
	AddDocuments(sessionID uint, documentIDs []uint) error
	DocumentIDs(sessionID uint) ([]uint, error)
	DeleteLinksBySessionID(sessionID uint) error
	SessionIDsForDocument(documentID uint) ([]uint, error)
	DeleteLinksByDocumentID(documentID uint) error
}

type QueryStore interface {
	Create(query *model.RAGQuery) error
	ListBySessionID(sessionID uint, limit int) ([]model.RAGQuery, error)
	DeleteBySessionID(sessionID uint) error
}

type ConfigStore interface {
	GetByUserID(userID uint) (*model.RAGConfiguration, error)
	Create(cfg *model.RAGConfiguration) error
	Save(cfg *model.RAGConfiguration) error
}

// HistoryCache fronts query-history reads. All methods are best-effort from
// the service's point of view; a cache failure never fails a request.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.RAGQueryView, bool, error)
	SetHistory(ctx context.Context, sessionID uint, queries []model.RAGQueryView) error
	Invalidate(ctx context.Context, sessionID uint) error
}

// JobPublisher hands document-processing jobs to the ingest queue.
type JobPublisher interface {
	Publish(ctx context.Context, job rabbitmq.IngestJob) error
}

// ProviderSource resolves the embedding provider for a model identity.
// Satisfied by rag.ProviderCache.
type ProviderSource interface {
	Get(ctx context.Context, modelID string) (rag.VectorProvider, error)
}
