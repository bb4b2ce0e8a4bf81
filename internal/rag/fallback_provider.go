package rag

import (
	"context"
	"strings"
	"unicode"
)

// maxExtraTerms bounds how many distinct input terms extend the base
// vocabulary, so fallback vectors stay small for arbitrarily long inputs.
const maxExtraTerms = 20

// baseVocabulary anchors the leading dimensions of every fallback vector.
// Fixed at compile time so identical inputs always produce identical vectors,
// across restarts and across processes.
var baseVocabulary = []string{
	"the", "a", "an", "and", "or", "but", "of", "in", "on", "at",
	"to", "for", "with", "by", "from", "as", "is", "are", "was", "were",
	"be", "it", "this", "that", "not", "what", "which", "how", "why", "when",
}

// FallbackProvider is the deterministic term-frequency embedder used when no
// model backend is reachable. Vectors are L1-normalized term counts over the
// base vocabulary plus up to maxExtraTerms distinct terms from the input, in
// first-appearance order. Dimension therefore varies per input; the retriever
// aligns mismatched lengths in this mode.
type FallbackProvider struct {
	vocabIndex map[string]int
}

func NewFallbackProvider() *FallbackProvider {
	idx := make(map[string]int, len(baseVocabulary))
	for i, term := range baseVocabulary {
		idx[term] = i
	}
	return &FallbackProvider{vocabIndex: idx}
}

func (p *FallbackProvider) Embed(_ context.Context, text string) ([]float32, error) {
	terms := tokenizeTerms(text)

	vec := make([]float32, len(baseVocabulary), len(baseVocabulary)+maxExtraTerms)
	extraIndex := make(map[string]int, maxExtraTerms)

	for _, term := range terms {
		if i, ok := p.vocabIndex[term]; ok {
			vec[i]++
			continue
		}
		i, ok := extraIndex[term]
		if !ok {
			if len(extraIndex) >= maxExtraTerms {
				continue
			}
			i = len(vec)
			extraIndex[term] = i
			vec = append(vec, 0)
		}
		vec[i]++
	}

	var sum float32
	for _, v := range vec {
		sum += v
	}
	if sum > 0 {
		for i := range vec {
			vec[i] /= sum
		}
	}
	return vec, nil
}

func (p *FallbackProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (p *FallbackProvider) Status() ProviderStatus {
	return ProviderStatus{
		Variant: VariantFallback,
		ModelID: "term-frequency",
		Ready:   true,
		Device:  "cpu",
	}
}

func tokenizeTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
