package rag

import "context"

// Variant identifies which embedding implementation the process selected at
// startup. The choice is made once and never re-decided per request.
type Variant string

const (
	VariantModel    Variant = "model-backed"
	VariantFallback Variant = "fallback"
)

// ProviderStatus is the read-only health view of the active provider.
// Dimension is 0 for the fallback variant, whose width depends on the input.
type ProviderStatus struct {
	Variant   Variant `json:"variant"`
	ModelID   string  `json:"model_id"`
	Dimension int     `json:"dimension"`
	Ready     bool    `json:"ready"`
	Device    string  `json:"device"`
}

// VectorProvider converts text into a numeric vector. EmbedBatch preserves
// input order and is equivalent to embedding each element independently.
type VectorProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Status() ProviderStatus
}
