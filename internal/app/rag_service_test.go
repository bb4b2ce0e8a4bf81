package app

import (
	"context"
	"errors"
	"testing"

	"github.com/debarghya18/local-RAG/internal/model"
	"github.com/debarghya18/local-RAG/internal/rag"
)

// In-memory store fakes. Each test builds its own fixture, so the fakes skip
// locking.

type fakeDocs struct {
	seq  uint
	docs map[uint]*model.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[uint]*model.Document)}
}

func (f *fakeDocs) Create(doc *model.Document) error {
	f.seq++
	doc.ID = f.seq
	stored := *doc
	f.docs[doc.ID] = &stored
	return nil
}

func (f *fakeDocs) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok || doc.UserID != userID {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocs) ListByUserID(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) ListByIDs(ids []uint) ([]model.Document, error) {
	var out []model.Document
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) UpdateStatus(id uint, status, reason string) error {
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.StatusReason = reason
	}
	return nil
}

func (f *fakeDocs) UpdateCounts(id uint, pageCount, chunkCount int) error {
	if doc, ok := f.docs[id]; ok {
		doc.PageCount = pageCount
		doc.ChunkCount = chunkCount
	}
	return nil
}

func (f *fakeDocs) DeleteByIDAndUserID(id, userID uint) error {
	if doc, ok := f.docs[id]; ok && doc.UserID == userID {
		delete(f.docs, id)
	}
	return nil
}

type fakeChunks struct {
	seq  uint
	rows []model.DocumentChunk
}

func (f *fakeChunks) CreateBatch(chunks []model.DocumentChunk) error {
	for i := range chunks {
		f.seq++
		chunks[i].ID = f.seq
		f.rows = append(f.rows, chunks[i])
	}
	return nil
}

func (f *fakeChunks) ListByIDs(ids []uint) ([]model.DocumentChunk, error) {
	want := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []model.DocumentChunk
	for _, row := range f.rows {
		if _, ok := want[row.ID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeChunks) ListByDocumentID(documentID uint) ([]model.DocumentChunk, error) {
	var out []model.DocumentChunk
	for _, row := range f.rows {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeChunks) DeleteByDocumentID(documentID uint) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.DocumentID != documentID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeVectors struct {
	entries []rag.IndexEntry
}

func (f *fakeVectors) Upsert(_ context.Context, entry rag.IndexEntry) error {
	for i := range f.entries {
		if f.entries[i].ChunkID == entry.ChunkID && f.entries[i].ModelID == entry.ModelID {
			f.entries[i] = entry
			return nil
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeVectors) VectorsFor(_ context.Context, documentIDs []uint, modelID string) ([]rag.IndexEntry, error) {
	scope := make(map[uint]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		scope[id] = struct{}{}
	}
	var out []rag.IndexEntry
	for _, e := range f.entries {
		if e.ModelID != modelID {
			continue
		}
		if _, ok := scope[e.DocumentID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeVectors) DeleteByDocumentID(documentID uint) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeSessions struct {
	seq      uint
	sessions map[uint]*model.RAGSession
	links    []model.SessionDocument
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[uint]*model.RAGSession)}
}

func (f *fakeSessions) Create(session *model.RAGSession) error {
	f.seq++
	session.ID = f.seq
	stored := *session
	f.sessions[session.ID] = &stored
	return nil
}

func (f *fakeSessions) ListByUserID(userID uint) ([]model.RAGSession, error) {
	var out []model.RAGSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessions) GetByIDAndUserID(id, userID uint) (*model.RAGSession, error) {
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessions) DeleteByIDAndUserID(id, userID uint) error {
	if s, ok := f.sessions[id]; ok && s.UserID == userID {
		delete(f.sessions, id)
	}
	return nil
}

func (f *fakeSessions) AddDocuments(sessionID uint, documentIDs []uint) error {
	for _, docID := range documentIDs {
		f.links = append(f.links, model.SessionDocument{SessionID: sessionID, DocumentID: docID})
	}
	return nil
}

func (f *fakeSessions) DocumentIDs(sessionID uint) ([]uint, error) {
	var out []uint
	for _, link := range f.links {
		if link.SessionID == sessionID {
			out = append(out, link.DocumentID)
		}
	}
	return out, nil
}

func (f *fakeSessions) DeleteLinksBySessionID(sessionID uint) error {
	kept := f.links[:0]
	for _, link := range f.links {
		if link.SessionID != sessionID {
			kept = append(kept, link)
		}
	}
	f.links = kept
	return nil
}

func (f *fakeSessions) SessionIDsForDocument(documentID uint) ([]uint, error) {
	var out []uint
	for _, link := range f.links {
		if link.DocumentID == documentID {
			out = append(out, link.SessionID)
		}
	}
	return out, nil
}

func (f *fakeSessions) DeleteLinksByDocumentID(documentID uint) error {
	kept := f.links[:0]
	for _, link := range f.links {
		if link.DocumentID != documentID {
			kept = append(kept, link)
		}
	}
	f.links = kept
	return nil
}

type fakeQueries struct {
	seq  uint
	rows []model.RAGQuery
}

func (f *fakeQueries) Create(query *model.RAGQuery) error {
	f.seq++
	query.ID = f.seq
	f.rows = append(f.rows, *query)
	return nil
}

func (f *fakeQueries) ListBySessionID(sessionID uint, limit int) ([]model.RAGQuery, error) {
	var out []model.RAGQuery
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].SessionID != sessionID {
			continue
		}
		out = append(out, f.rows[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeQueries) DeleteBySessionID(sessionID uint) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.SessionID != sessionID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

type fakeConfigs struct {
	seq  uint
	byID map[uint]*model.RAGConfiguration
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{byID: make(map[uint]*model.RAGConfiguration)}
}

func (f *fakeConfigs) GetByUserID(userID uint) (*model.RAGConfiguration, error) {
	cfg, ok := f.byID[userID]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

func (f *fakeConfigs) Create(cfg *model.RAGConfiguration) error {
	f.seq++
	cfg.ID = f.seq
	stored := *cfg
	f.byID[cfg.UserID] = &stored
	return nil
}

func (f *fakeConfigs) Save(cfg *model.RAGConfiguration) error {
	stored := *cfg
	f.byID[cfg.UserID] = &stored
	return nil
}

type fakeProviders struct {
	provider rag.VectorProvider
}

func (f *fakeProviders) Get(_ context.Context, _ string) (rag.VectorProvider, error) {
	return f.provider, nil
}

type fixture struct {
	svc      *RAGService
	docs     *fakeDocs
	chunks   *fakeChunks
	vectors  *fakeVectors
	sessions *fakeSessions
	queries  *fakeQueries
	configs  *fakeConfigs
}

func newFixture() *fixture {
	f := &fixture{
		docs:     newFakeDocs(),
		chunks:   &fakeChunks{},
		vectors:  &fakeVectors{},
		sessions: newFakeSessions(),
		queries:  &fakeQueries{},
		configs:  newFakeConfigs(),
	}
	f.svc = NewRAGService(RAGServiceDeps{
		Documents: f.docs,
		Chunks:    f.chunks,
		Vectors:   f.vectors,
		Sessions:  f.sessions,
		Queries:   f.queries,
		Configs:   f.configs,
		Providers: &fakeProviders{provider: rag.NewFallbackProvider()},
		Composer:  rag.NewComposer(nil),
		Defaults: model.RAGConfiguration{
			ModelName:           "all-MiniLM-L6-v2",
			ChunkSize:           1000,
			ChunkOverlap:        200,
			MaxTokens:           2048,
			Temperature:         0.7,
			TopK:                10,
			SimilarityThreshold: 0.5,
		},
		EmbedBatchSize: 32,
	})
	return f
}

func (f *fixture) mustIngest(t *testing.T, userID uint, title, content string) *model.Document {
	t.Helper()
	doc, err := f.svc.IngestText(context.Background(), userID, title, content)
	if err != nil {
		t.Fatalf("IngestText: %v", err)
	}
	return doc
}

func (f *fixture) mustSession(t *testing.T, userID uint, docIDs ...uint) *model.RAGSession {
	t.Helper()
	session, err := f.svc.CreateSession(CreateSessionInput{UserID: userID, Title: "test", DocumentIDs: docIDs})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

func TestIngestTextProcessesDocument(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma. Delta epsilon zeta.")

	if doc.Status != model.DocumentStatusCompleted {
		t.Errorf("status = %q, want completed (reason %q)", doc.Status, doc.StatusReason)
	}
	if doc.PageCount != 1 {
		t.Errorf("page count = %d, want 1", doc.PageCount)
	}
	if doc.ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", doc.ChunkCount)
	}
	if len(f.vectors.entries) != doc.ChunkCount {
		t.Errorf("indexed vectors = %d, want %d", len(f.vectors.entries), doc.ChunkCount)
	}
	if f.vectors.entries[0].ModelID != "term-frequency" {
		t.Errorf("vector model id = %q, want term-frequency", f.vectors.entries[0].ModelID)
	}
}

func TestIngestTextRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.svc.IngestText(context.Background(), 1, "empty", "   \n\t "); !errors.Is(err, ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestReprocessReplacesChunksAndVectors(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	if err := f.svc.ProcessDocument(context.Background(), doc.ID, 1, []rag.PageText{{Number: 1, Text: "Delta epsilon zeta."}}); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	rows, _ := f.chunks.ListByDocumentID(doc.ID)
	if len(rows) != 1 {
		t.Fatalf("chunks after reprocess = %d, want 1", len(rows))
	}
	if rows[0].Content != "Delta epsilon zeta." {
		t.Errorf("chunk content = %q, want replaced text", rows[0].Content)
	}
	if len(f.vectors.entries) != 1 {
		t.Errorf("vectors after reprocess = %d, want 1", len(f.vectors.entries))
	}
}

func TestCreateSessionRequiresCompletedDocuments(t *testing.T) {
	t.Parallel()
	f := newFixture()

	pending := &model.Document{UserID: 1, Title: "pending", Status: model.DocumentStatusPending}
	if err := f.docs.Create(pending); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.CreateSession(CreateSessionInput{UserID: 1, DocumentIDs: []uint{pending.ID}}); !errors.Is(err, ErrDocumentNotReady) {
		t.Errorf("pending document: err = %v, want ErrDocumentNotReady", err)
	}
	if _, err := f.svc.CreateSession(CreateSessionInput{UserID: 1, DocumentIDs: []uint{999}}); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("unknown document: err = %v, want ErrDocumentNotFound", err)
	}
	if _, err := f.svc.CreateSession(CreateSessionInput{UserID: 1, DocumentIDs: nil}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no documents: err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateSessionRejectsForeignDocuments(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	if _, err := f.svc.CreateSession(CreateSessionInput{UserID: 2, DocumentIDs: []uint{doc.ID}}); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("foreign document: err = %v, want ErrDocumentNotFound", err)
	}
}

func TestQueryMatchingText(t *testing.T) {
	t.Parallel()
	f := newFixture()

	content := "The quick brown fox jumps over the lazy dog"
	doc := f.mustIngest(t, 1, "Animals", content)
	session := f.mustSession(t, 1, doc.ID)

	view, err := f.svc.Query(context.Background(), 1, session.ID, content)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if view.ResponseText == rag.NoInformationAnswer {
		t.Fatal("identical text produced the no-information answer")
	}
	if len(view.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(view.Sources))
	}
	src := view.Sources[0]
	if src.DocumentID != doc.ID || src.DocumentTitle != "Animals" || src.Rank != 1 {
		t.Errorf("source = %+v", src)
	}
	if src.SimilarityScore < 0.999 {
		t.Errorf("similarity = %v, want ~1.0 for identical text", src.SimilarityScore)
	}
	if view.Metadata.ChunksFound != 1 || view.Metadata.ChunksUsed != 1 {
		t.Errorf("metadata = %+v, want found=1 used=1", view.Metadata)
	}
	if view.Metadata.Config.ModelID != "term-frequency" {
		t.Errorf("snapshot model id = %q", view.Metadata.Config.ModelID)
	}
	if len(f.queries.rows) != 1 {
		t.Errorf("persisted queries = %d, want 1", len(f.queries.rows))
	}
}

func TestQueryWeakMatchExcludedByThreshold(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Animals", "The quick brown fox jumps over the lazy dog")
	session := f.mustSession(t, 1, doc.ID)

	// Shares only two terms with the document; similarity lands well below
	// the default 0.5 threshold.
	view, err := f.svc.Query(context.Background(), 1, session.ID, "quick brown cat")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if view.ResponseText != rag.NoInformationAnswer {
		t.Errorf("answer = %q, want the no-information answer", view.ResponseText)
	}
	if view.Metadata.ChunksFound != 1 {
		t.Errorf("chunks found = %d, want 1", view.Metadata.ChunksFound)
	}
	if view.Metadata.ChunksUsed != 0 {
		t.Errorf("chunks used = %d, want 0", view.Metadata.ChunksUsed)
	}
	if len(view.Sources) != 0 {
		t.Errorf("sources = %d, want 0", len(view.Sources))
	}
	if len(f.queries.rows) != 1 {
		t.Errorf("no-result query was not recorded")
	}
}

func TestThresholdUpdateChangesOutcome(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Animals", "The quick brown fox jumps over the lazy dog")
	session := f.mustSession(t, 1, doc.ID)
	query := "the quick brown fox"

	before, err := f.svc.Query(context.Background(), 1, session.ID, query)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if before.Metadata.ChunksUsed != 1 {
		t.Fatalf("chunks used before update = %d, want 1 (similarity %v)", before.Metadata.ChunksUsed, before.Sources)
	}

	if _, err := f.svc.UpdateConfig(1, map[string]interface{}{"similarity_threshold": 0.9}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	after, err := f.svc.Query(context.Background(), 1, session.ID, query)
	if err != nil {
		t.Fatalf("Query after update: %v", err)
	}
	if after.Metadata.ChunksFound != 1 || after.Metadata.ChunksUsed != 0 {
		t.Errorf("metadata after update = %+v, want found=1 used=0", after.Metadata)
	}
	if after.ResponseText != rag.NoInformationAnswer {
		t.Errorf("answer after update = %q, want the no-information answer", after.ResponseText)
	}
	if after.Metadata.Config.SimilarityThreshold != 0.9 {
		t.Errorf("snapshot threshold = %v, want 0.9", after.Metadata.Config.SimilarityThreshold)
	}
	if before.Metadata.Config.SimilarityThreshold != 0.5 {
		t.Errorf("earlier record's snapshot changed: %v", before.Metadata.Config.SimilarityThreshold)
	}
}

func TestQuerySessionWithoutVectors(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	session := f.mustSession(t, 1, doc.ID)
	if err := f.vectors.DeleteByDocumentID(doc.ID); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.Query(context.Background(), 1, session.ID, "anything at all")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if view.ResponseText != rag.NoInformationAnswer {
		t.Errorf("answer = %q, want the no-information answer", view.ResponseText)
	}
	if view.Metadata.ChunksFound != 0 || view.Metadata.ChunksUsed != 0 {
		t.Errorf("metadata = %+v, want found=0 used=0", view.Metadata)
	}
}

func TestQueryErrors(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	session := f.mustSession(t, 1, doc.ID)

	if _, err := f.svc.Query(context.Background(), 1, session.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank query: err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Query(context.Background(), 1, 999, "question"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.Query(context.Background(), 2, session.ID, "question"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign session: err = %v, want ErrSessionNotFound", err)
	}

	empty := &model.RAGSession{UserID: 1, Title: "empty"}
	if err := f.sessions.Create(empty); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Query(context.Background(), 1, empty.ID, "question"); !errors.Is(err, ErrNoDocumentsInScope) {
		t.Errorf("empty session: err = %v, want ErrNoDocumentsInScope", err)
	}
}

func TestSessionHistoryNewestFirst(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Animals", "The quick brown fox jumps over the lazy dog")
	session := f.mustSession(t, 1, doc.ID)

	if _, err := f.svc.Query(context.Background(), 1, session.ID, "first question here"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Query(context.Background(), 1, session.ID, "second question here"); err != nil {
		t.Fatal(err)
	}

	history, err := f.svc.SessionHistory(context.Background(), 1, session.ID)
	if err != nil {
		t.Fatalf("SessionHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].QueryText != "second question here" {
		t.Errorf("history[0] = %q, want the newest query first", history[0].QueryText)
	}
	if history[0].Sources == nil {
		t.Error("history entry has nil sources")
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	session := f.mustSession(t, 1, doc.ID)

	if err := f.svc.DeleteDocument(context.Background(), 1, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if rows, _ := f.chunks.ListByDocumentID(doc.ID); len(rows) != 0 {
		t.Errorf("chunks remain after delete: %d", len(rows))
	}
	if len(f.vectors.entries) != 0 {
		t.Errorf("vectors remain after delete: %d", len(f.vectors.entries))
	}
	if ids, _ := f.sessions.DocumentIDs(session.ID); len(ids) != 0 {
		t.Errorf("session links remain after delete: %d", len(ids))
	}
}

func TestDeleteSessionKeepsDocuments(t *testing.T) {
	t.Parallel()
	f := newFixture()

	doc := f.mustIngest(t, 1, "Guide", "Alpha beta gamma.")
	session := f.mustSession(t, 1, doc.ID)
	if _, err := f.svc.Query(context.Background(), 1, session.ID, "alpha beta gamma"); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteSession(context.Background(), 1, session.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if len(f.queries.rows) != 0 {
		t.Errorf("query records remain after session delete: %d", len(f.queries.rows))
	}
	if kept, _ := f.docs.GetByIDAndUserID(doc.ID, 1); kept == nil {
		t.Error("document was deleted with the session")
	}
	if err := f.svc.DeleteSession(context.Background(), 1, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second delete: err = %v, want ErrSessionNotFound", err)
	}
}

func TestEnsureConfigCreatesDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture()

	cfg, err := f.svc.EnsureConfig(7)
	if err != nil {
		t.Fatalf("EnsureConfig: %v", err)
	}
	if cfg.UserID != 7 {
		t.Errorf("user id = %d, want 7", cfg.UserID)
	}
	if cfg.ChunkSize != 1000 || cfg.TopK != 10 || cfg.SimilarityThreshold != 0.5 {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	again, err := f.svc.EnsureConfig(7)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != cfg.ID {
		t.Errorf("second EnsureConfig created a new row: %d vs %d", again.ID, cfg.ID)
	}
}

func TestUpdateConfigValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	// float64 values mimic decoded JSON numbers.
	cfg, err := f.svc.UpdateConfig(1, map[string]interface{}{
		"top_k":         float64(3),
		"chunk_size":    float64(500),
		"chunk_overlap": float64(100),
		"unknown_knob":  "ignored",
		"another_extra": float64(42),
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if cfg.TopK != 3 || cfg.ChunkSize != 500 || cfg.ChunkOverlap != 100 {
		t.Errorf("updates not applied: %+v", cfg)
	}

	cases := map[string]map[string]interface{}{
		"negative top_k":        {"top_k": float64(-1)},
		"zero chunk_size":       {"chunk_size": float64(0)},
		"threshold above 1":     {"similarity_threshold": 1.5},
		"temperature above 2":   {"temperature": 2.5},
		"fractional top_k":      {"top_k": 2.5},
		"wrong type":            {"chunk_size": "big"},
		"overlap >= chunk_size": {"chunk_overlap": float64(600), "chunk_size": float64(400)},
	}
	for name, updates := range cases {
		if _, err := f.svc.UpdateConfig(1, updates); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}

	// Rejected updates must not partially apply.
	current, err := f.svc.EnsureConfig(1)
	if err != nil {
		t.Fatal(err)
	}
	if current.ChunkSize != 500 || current.ChunkOverlap != 100 {
		t.Errorf("config changed by rejected update: %+v", current)
	}
}
