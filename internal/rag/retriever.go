package rag

import (
	"errors"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a query vector and an indexed vector
// disagree on length outside of fallback mode.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// RetrievalResult is an ephemeral ranking entry. Rank is 1-based, best first.
type RetrievalResult struct {
	ChunkID    uint
	DocumentID uint
	Similarity float64
	Rank       int
}

// Retriever ranks indexed vectors against a query vector by cosine
// similarity. alignLengths tolerates mismatched vector widths by comparing
// over the shorter prefix; it is enabled only for the fallback provider,
// whose dimension varies with the input.
type Retriever struct {
	alignLengths bool
}

func NewRetriever(alignLengths bool) *Retriever {
	return &Retriever{alignLengths: alignLengths}
}

// Retrieve returns up to topK candidates sorted by descending similarity.
// Ties keep the candidates' insertion order, so a fixed index and query
// always produce the same ranking. An empty candidate set yields no results
// and no error.
func (r *Retriever) Retrieve(query []float32, candidates []IndexEntry, topK int) ([]RetrievalResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	results := make([]RetrievalResult, 0, len(candidates))
	for _, cand := range candidates {
		if !r.alignLengths && len(cand.Vector) != len(query) {
			return nil, ErrDimensionMismatch
		}
		results = append(results, RetrievalResult{
			ChunkID:    cand.ChunkID,
			DocumentID: cand.DocumentID,
			Similarity: CosineSimilarity(query, cand.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topK < len(results) {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// ApplyThreshold keeps results whose similarity meets the threshold. Results
// strictly below it are excluded from composition; the caller reports the
// pre-filter count separately.
func ApplyThreshold(results []RetrievalResult, threshold float64) []RetrievalResult {
	out := make([]RetrievalResult, 0, len(results))
	for _, res := range results {
		if res.Similarity >= threshold {
			out = append(out, res)
		}
	}
	return out
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// aligned to the shorter length. A zero norm on either side yields 0; NaN
// never escapes.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
