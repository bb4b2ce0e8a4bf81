package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/debarghya18/local-RAG/internal/model"
	"github.com/debarghya18/local-RAG/internal/platform/rabbitmq"
	"github.com/debarghya18/local-RAG/internal/rag"
)

const historyLimit = 50

var (
	ErrNoText               = errors.New("document has no extractable text")
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrEmbeddingFailed      = errors.New("embedding failed")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrDocumentNotReady     = errors.New("document is not ready for querying")
	ErrNoDocumentsInScope   = errors.New("session has no documents")
)

// RAGService owns the document lifecycle and the query path: chunking,
// embedding, retrieval, and answer composition.
type RAGService struct {
	docs      DocumentStore
	chunks    ChunkStore
	vectors   VectorStore
	sessions  SessionStore
	queries   QueryStore
	configs   ConfigStore
	history   HistoryCache
	publisher JobPublisher
	providers ProviderSource
	composer  *rag.Composer

	defaults       model.RAGConfiguration
	embedBatchSize int
}

type RAGServiceDeps struct {
	Documents DocumentStore
	Chunks    ChunkStore
	Vectors   VectorStore
	Sessions  SessionStore
	Queries   QueryStore
	Configs   ConfigStore
	History   HistoryCache // optional
	Publisher JobPublisher // optional; nil processes documents inline
	Providers ProviderSource
	Composer  *rag.Composer

	Defaults       model.RAGConfiguration
	EmbedBatchSize int
}

func NewRAGService(deps RAGServiceDeps) *RAGService {
	batchSize := deps.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	return &RAGService{
		docs:           deps.Documents,
		chunks:         deps.Chunks,
		vectors:        deps.Vectors,
		sessions:       deps.Sessions,
		queries:        deps.Queries,
		configs:        deps.Configs,
		history:        deps.History,
		publisher:      deps.Publisher,
		providers:      deps.Providers,
		composer:       deps.Composer,
		defaults:       deps.Defaults,
		embedBatchSize: batchSize,
	}
}

// CreateDocument registers a document and queues it for processing. With no
// publisher configured processing runs inline before returning.
func (s *RAGService) CreateDocument(ctx context.Context, userID uint, title string, pages []rag.PageText) (*model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if !hasText(pages) {
		return nil, ErrNoText
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	doc := &model.Document{
		UserID: userID,
		Title:  title,
		Status: model.DocumentStatusPending,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	if s.publisher == nil {
		if err := s.ProcessDocument(ctx, doc.ID, userID, pages); err != nil {
			return nil, err
		}
		processed, err := s.docs.GetByIDAndUserID(doc.ID, userID)
		if err != nil {
			return nil, err
		}
		return processed, nil
	}

	job := rabbitmq.IngestJob{DocumentID: doc.ID, UserID: userID, Pages: pages}
	if err := s.publisher.Publish(ctx, job); err != nil {
		_ = s.docs.UpdateStatus(doc.ID, model.DocumentStatusFailed, "queueing failed")
		return nil, fmt.Errorf("queue ingest job failed: %w", err)
	}
	return doc, nil
}

// ProcessDocument runs the full ingestion of one document: chunk, embed,
// index. Safe to re-run; prior chunks and vectors are replaced. Failures are
// recorded on the document before the error is returned.
func (s *RAGService) ProcessDocument(ctx context.Context, documentID, userID uint, pages []rag.PageText) error {
	if documentID == 0 || userID == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.docs.UpdateStatus(documentID, model.DocumentStatusProcessing, ""); err != nil {
		return err
	}

	cfg, err := s.EnsureConfig(userID)
	if err != nil {
		return s.failDocument(documentID, "load configuration failed", err)
	}

	chunker := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	pieces := chunker.SplitPages(pages)
	if len(pieces) == 0 {
		_ = s.docs.UpdateStatus(documentID, model.DocumentStatusFailed, "no extractable text")
		return ErrNoText
	}

	if err := s.chunks.DeleteByDocumentID(documentID); err != nil {
		return s.failDocument(documentID, "reset chunks failed", err)
	}
	if err := s.vectors.DeleteByDocumentID(documentID); err != nil {
		return s.failDocument(documentID, "reset vectors failed", err)
	}

	rows := make([]model.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		rows[i] = model.DocumentChunk{
			DocumentID: documentID,
			ChunkIndex: piece.Index,
			PageNumber: piece.PageNumber,
			Content:    piece.Text,
			CharCount:  piece.CharCount,
			WordCount:  piece.WordCount,
		}
	}
	if err := s.chunks.CreateBatch(rows); err != nil {
		return s.failDocument(documentID, "persist chunks failed", err)
	}

	provider, err := s.providers.Get(ctx, cfg.ModelName)
	if err != nil {
		_ = s.docs.UpdateStatus(documentID, model.DocumentStatusFailed, "embedding provider unavailable")
		return fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	modelID := provider.Status().ModelID

	for start := 0; start < len(rows); start += s.embedBatchSize {
		end := start + s.embedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		vecs, err := provider.EmbedBatch(ctx, texts)
		if err != nil {
			_ = s.docs.UpdateStatus(documentID, model.DocumentStatusFailed, "embedding failed")
			return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		for i := range batch {
			entry := rag.IndexEntry{
				ChunkID:    batch[i].ID,
				DocumentID: documentID,
				ModelID:    modelID,
				Vector:     vecs[i],
			}
			if err := s.vectors.Upsert(ctx, entry); err != nil {
				return s.failDocument(documentID, "index vectors failed", err)
			}
		}
	}

	if err := s.docs.UpdateCounts(documentID, len(pages), len(rows)); err != nil {
		return err
	}
	return s.docs.UpdateStatus(documentID, model.DocumentStatusCompleted, "")
}

// IngestText is the synchronous ingestion path for raw text, bypassing the
// queue regardless of broker availability.
func (s *RAGService) IngestText(ctx context.Context, userID uint, title, content string) (*model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	pages := []rag.PageText{{Number: 1, Text: content}}
	if !hasText(pages) {
		return nil, ErrNoText
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	doc := &model.Document{
		UserID: userID,
		Title:  title,
		Status: model.DocumentStatusPending,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}
	if err := s.ProcessDocument(ctx, doc.ID, userID, pages); err != nil {
		return nil, err
	}
	return s.docs.GetByIDAndUserID(doc.ID, userID)
}

func (s *RAGService) GetDocument(userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *RAGService) ListDocuments(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(userID)
}

// DeleteDocument removes a document with its chunks, vectors, and session
// links. Histories of sessions that referenced it are invalidated.
func (s *RAGService) DeleteDocument(ctx context.Context, userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.chunks.DeleteByDocumentID(documentID); err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocumentID(documentID); err != nil {
		return err
	}

	affected, err := s.sessions.SessionIDsForDocument(documentID)
	if err != nil {
		return err
	}
	if err := s.sessions.DeleteLinksByDocumentID(documentID); err != nil {
		return err
	}
	if err := s.docs.DeleteByIDAndUserID(documentID, userID); err != nil {
		return err
	}

	if s.history != nil {
		for _, sessionID := range affected {
			if err := s.history.Invalidate(ctx, sessionID); err != nil {
				log.Printf("invalidate history for session %d failed: %v", sessionID, err)
			}
		}
	}
	return nil
}

type CreateSessionInput struct {
	UserID      uint
	Title       string
	DocumentIDs []uint
}

// CreateSession fixes a set of completed documents under a title. Every
// document must belong to the user and be fully processed.
func (s *RAGService) CreateSession(input CreateSessionInput) (*model.RAGSession, error) {
	if input.UserID == 0 || len(input.DocumentIDs) == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Session"
	}

	seen := make(map[uint]struct{}, len(input.DocumentIDs))
	docIDs := make([]uint, 0, len(input.DocumentIDs))
	for _, id := range input.DocumentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc, err := s.docs.GetByIDAndUserID(id, input.UserID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
		if doc.Status != model.DocumentStatusCompleted {
			return nil, ErrDocumentNotReady
		}
		docIDs = append(docIDs, id)
	}

	session := &model.RAGSession{UserID: input.UserID, Title: title}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	if err := s.sessions.AddDocuments(session.ID, docIDs); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RAGService) ListSessions(userID uint) ([]model.RAGSession, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(userID)
}

// DeleteSession removes a session with its query records and document links.
// The documents themselves survive; they may belong to other sessions.
func (s *RAGService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.queries.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteLinksBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}

	if s.history != nil {
		if err := s.history.Invalidate(ctx, sessionID); err != nil {
			log.Printf("invalidate history for session %d failed: %v", sessionID, err)
		}
	}
	return nil
}

// Query runs the full retrieval path against a session's documents and
// records the outcome. Finding nothing relevant is a normal result carrying
// the fixed no-information answer, never an error.
func (s *RAGService) Query(ctx context.Context, userID, sessionID uint, queryText string) (*model.RAGQueryView, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	docIDs, err := s.sessions.DocumentIDs(sessionID)
	if err != nil {
		return nil, err
	}
	if len(docIDs) == 0 {
		return nil, ErrNoDocumentsInScope
	}

	cfg, err := s.EnsureConfig(userID)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.Get(ctx, cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	status := provider.Status()

	start := time.Now()

	queryVec, err := provider.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	candidates, err := s.vectors.VectorsFor(ctx, docIDs, status.ModelID)
	if err != nil {
		return nil, err
	}

	retriever := rag.NewRetriever(status.Variant == rag.VariantFallback)
	ranked, err := retriever.Retrieve(queryVec, candidates, cfg.TopK)
	if err != nil {
		return nil, err
	}
	kept := rag.ApplyThreshold(ranked, cfg.SimilarityThreshold)

	sourceChunks, err := s.resolveChunks(kept)
	if err != nil {
		return nil, err
	}

	answer, sources := s.composer.Compose(ctx, queryText, sourceChunks, rag.GenerateOptions{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})

	record := &model.RAGQuery{
		SessionID:      sessionID,
		QueryText:      queryText,
		ResponseText:   answer,
		ProcessingTime: time.Since(start).Seconds(),
	}
	record.SetSourceList(sources)
	record.SetMetadata(model.QueryMetadata{
		ChunksFound: len(ranked),
		ChunksUsed:  len(sourceChunks),
		Config: model.ConfigSnapshot{
			TopK:                cfg.TopK,
			SimilarityThreshold: cfg.SimilarityThreshold,
			ModelID:             status.ModelID,
		},
	})
	if err := s.queries.Create(record); err != nil {
		return nil, err
	}

	if s.history != nil {
		if err := s.history.Invalidate(ctx, sessionID); err != nil {
			log.Printf("invalidate history for session %d failed: %v", sessionID, err)
		}
	}

	view := record.View()
	return &view, nil
}

// resolveChunks joins ranked vector hits with their chunk rows and document
// titles, preserving rank order. Hits whose chunk row has been removed are
// skipped rather than failing the query.
func (s *RAGService) resolveChunks(results []rag.RetrievalResult) ([]rag.SourceChunk, error) {
	if len(results) == 0 {
		return nil, nil
	}

	chunkIDs := make([]uint, len(results))
	for i, res := range results {
		chunkIDs[i] = res.ChunkID
	}
	chunkRows, err := s.chunks.ListByIDs(chunkIDs)
	if err != nil {
		return nil, err
	}
	chunksByID := make(map[uint]model.DocumentChunk, len(chunkRows))
	docIDSet := make(map[uint]struct{})
	for _, row := range chunkRows {
		chunksByID[row.ID] = row
		docIDSet[row.DocumentID] = struct{}{}
	}

	docIDs := make([]uint, 0, len(docIDSet))
	for id := range docIDSet {
		docIDs = append(docIDs, id)
	}
	docRows, err := s.docs.ListByIDs(docIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[uint]string, len(docRows))
	for _, row := range docRows {
		titles[row.ID] = row.Title
	}

	out := make([]rag.SourceChunk, 0, len(results))
	for _, res := range results {
		row, ok := chunksByID[res.ChunkID]
		if !ok {
			continue
		}
		out = append(out, rag.SourceChunk{
			ChunkID:       row.ID,
			DocumentID:    row.DocumentID,
			DocumentTitle: titles[row.DocumentID],
			ChunkIndex:    row.ChunkIndex,
			PageNumber:    row.PageNumber,
			Text:          row.Content,
			Similarity:    res.Similarity,
			Rank:          res.Rank,
		})
	}
	return out, nil
}

// SessionHistory returns the session's recent query records, newest first,
// through the cache when one is configured.
func (s *RAGService) SessionHistory(ctx context.Context, userID, sessionID uint) ([]model.RAGQueryView, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.history != nil {
		cached, hit, err := s.history.GetHistory(ctx, sessionID)
		if err != nil {
			log.Printf("read history cache for session %d failed: %v", sessionID, err)
		} else if hit {
			return cached, nil
		}
	}

	records, err := s.queries.ListBySessionID(sessionID, historyLimit)
	if err != nil {
		return nil, err
	}
	views := make([]model.RAGQueryView, len(records))
	for i := range records {
		views[i] = records[i].View()
	}

	if s.history != nil {
		if err := s.history.SetHistory(ctx, sessionID, views); err != nil {
			log.Printf("write history cache for session %d failed: %v", sessionID, err)
		}
	}
	return views, nil
}

// EnsureConfig returns the user's retrieval configuration, creating it from
// the process defaults on first use.
func (s *RAGService) EnsureConfig(userID uint) (*model.RAGConfiguration, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	cfg, err := s.configs.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	fresh := s.defaults
	fresh.ID = 0
	fresh.UserID = userID
	if err := s.configs.Create(&fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// UpdateConfig merges recognized keys into the user's configuration.
// Unrecognized keys are ignored; recognized keys with out-of-range values
// reject the whole update.
func (s *RAGService) UpdateConfig(userID uint, updates map[string]interface{}) (*model.RAGConfiguration, error) {
	cfg, err := s.EnsureConfig(userID)
	if err != nil {
		return nil, err
	}

	for key, raw := range updates {
		switch key {
		case "model_name":
			v, ok := raw.(string)
			if !ok || strings.TrimSpace(v) == "" {
				return nil, ErrInvalidInput
			}
			cfg.ModelName = strings.TrimSpace(v)
		case "chunk_size":
			v, ok := toInt(raw)
			if !ok || v <= 0 {
				return nil, ErrInvalidInput
			}
			cfg.ChunkSize = v
		case "chunk_overlap":
			v, ok := toInt(raw)
			if !ok || v < 0 {
				return nil, ErrInvalidInput
			}
			cfg.ChunkOverlap = v
		case "max_tokens":
			v, ok := toInt(raw)
			if !ok || v <= 0 {
				return nil, ErrInvalidInput
			}
			cfg.MaxTokens = v
		case "temperature":
			v, ok := toFloat(raw)
			if !ok || v < 0 || v > 2 {
				return nil, ErrInvalidInput
			}
			cfg.Temperature = v
		case "top_k":
			v, ok := toInt(raw)
			if !ok || v <= 0 {
				return nil, ErrInvalidInput
			}
			cfg.TopK = v
		case "similarity_threshold":
			v, ok := toFloat(raw)
			if !ok || v < 0 || v > 1 {
				return nil, ErrInvalidInput
			}
			cfg.SimilarityThreshold = v
		}
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, ErrInvalidInput
	}

	if err := s.configs.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProviderStatus reports the active embedding provider for the default model
// identity, for the health endpoint.
func (s *RAGService) ProviderStatus(ctx context.Context) (rag.ProviderStatus, error) {
	provider, err := s.providers.Get(ctx, s.defaults.ModelName)
	if err != nil {
		return rag.ProviderStatus{}, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return provider.Status(), nil
}

func (s *RAGService) failDocument(documentID uint, reason string, err error) error {
	_ = s.docs.UpdateStatus(documentID, model.DocumentStatusFailed, reason)
	return fmt.Errorf("%s: %w", reason, err)
}

func hasText(pages []rag.PageText) bool {
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			return true
		}
	}
	return false
}

// toInt and toFloat accept the numeric shapes JSON decoding produces.
func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
