package rag

import (
	"context"
	"fmt"

	"github.com/debarghya18/local-RAG/internal/ai"
)

// ModelProvider embeds text through an external embedding model exposed over
// an OpenAI-compatible API. The model's dimension is fixed; it is learned by
// a probe request when the provider is constructed, which is the expensive
// step the provider cache amortizes.
type ModelProvider struct {
	client    *ai.Client
	modelID   string
	dimension int
}

// NewModelProvider probes the backend once to verify it is reachable and to
// record the model's vector dimension.
func NewModelProvider(ctx context.Context, client *ai.Client, modelID string) (*ModelProvider, error) {
	probe, err := client.Embed(ctx, modelID, "dimension probe")
	if err != nil {
		return nil, fmt.Errorf("probe embedding model %s failed: %w", modelID, err)
	}
	return &ModelProvider{
		client:    client,
		modelID:   modelID,
		dimension: len(probe),
	}, nil
}

func (p *ModelProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.client.Embed(ctx, p.modelID, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != p.dimension {
		return nil, fmt.Errorf("model %s returned dimension %d, want %d", p.modelID, len(vec), p.dimension)
	}
	return vec, nil
}

func (p *ModelProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.client.EmbedBatch(ctx, p.modelID, texts)
	if err != nil {
		return nil, err
	}
	for i, vec := range vectors {
		if len(vec) != p.dimension {
			return nil, fmt.Errorf("model %s returned dimension %d at index %d, want %d", p.modelID, len(vec), i, p.dimension)
		}
	}
	return vectors, nil
}

func (p *ModelProvider) Status() ProviderStatus {
	return ProviderStatus{
		Variant:   VariantModel,
		ModelID:   p.modelID,
		Dimension: p.dimension,
		Ready:     true,
		Device:    "remote",
	}
}
