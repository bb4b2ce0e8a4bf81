package rag

import (
	"context"
	"sync"
)

// IndexEntry is one chunk's vector under one embedding-model identity.
type IndexEntry struct {
	ChunkID    uint
	DocumentID uint
	ModelID    string
	Vector     []float32
}

// VectorIndex is an append-only flat store of chunk vectors. At most one
// vector exists per (chunk, model) pair; upserting the same pair replaces the
// prior vector, so ingestion is idempotent and safe to re-run. VectorsFor
// returns entries in stable insertion order, which the retriever relies on
// for deterministic tie-breaking.
type VectorIndex interface {
	Upsert(ctx context.Context, entry IndexEntry) error
	VectorsFor(ctx context.Context, documentIDs []uint, modelID string) ([]IndexEntry, error)
}

type indexKey struct {
	chunkID uint
	modelID string
}

// MemoryIndex is the in-process VectorIndex: a flat RWMutex-guarded
// collection scanned exhaustively. Replacing a vector keeps its original
// insertion position.
type MemoryIndex struct {
	mu      sync.RWMutex
	order   []indexKey
	entries map[indexKey]IndexEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[indexKey]IndexEntry)}
}

func (m *MemoryIndex) Upsert(_ context.Context, entry IndexEntry) error {
	key := indexKey{chunkID: entry.ChunkID, modelID: entry.ModelID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryIndex) VectorsFor(_ context.Context, documentIDs []uint, modelID string) ([]IndexEntry, error) {
	scope := make(map[uint]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		scope[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []IndexEntry
	for _, key := range m.order {
		if key.modelID != modelID {
			continue
		}
		entry := m.entries[key]
		if _, ok := scope[entry.DocumentID]; !ok {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Len reports the number of stored vectors across all models.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
