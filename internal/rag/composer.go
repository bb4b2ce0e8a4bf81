package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/debarghya18/local-RAG/internal/model"
)

// NoInformationAnswer is returned whenever composition has no chunks to work
// with. That is a normal outcome, not an error.
const NoInformationAnswer = "I couldn't find relevant information in the provided documents to answer your question."

const (
	maxContextChunks     = 5
	contextPreviewChars  = 500
	sourcePreviewChars   = 200
	excerptChars         = 450
	maxAnswerSentences   = 3
	minUsableAnswerChars = 10
)

// Generator is the external answer-generation capability. A nil Generator
// means the composer always takes the extractive path.
type Generator interface {
	Generate(ctx context.Context, query, contextBlock string, opts GenerateOptions) (string, error)
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// SourceChunk is a ranked chunk joined with its document metadata, ready for
// composition.
type SourceChunk struct {
	ChunkID       uint
	DocumentID    uint
	DocumentTitle string
	ChunkIndex    int
	PageNumber    int
	Text          string
	Similarity    float64
	Rank          int
}

// Composer builds the final answer and source list from ranked chunks.
type Composer struct {
	generator Generator
}

func NewComposer(generator Generator) *Composer {
	return &Composer{generator: generator}
}

// Compose answers the query from the ranked chunks, best first. With a
// generator configured it delegates to it and falls back to extractive
// composition when the call fails or the answer is too short to be useful.
func (c *Composer) Compose(ctx context.Context, query string, chunks []SourceChunk, opts GenerateOptions) (string, []model.QuerySource) {
	if len(chunks) == 0 {
		return NoInformationAnswer, []model.QuerySource{}
	}

	sources := buildSources(chunks)

	if c.generator != nil {
		answer, err := c.generator.Generate(ctx, query, buildContextBlock(chunks), opts)
		if err == nil {
			answer = strings.TrimSpace(answer)
			if len(answer) >= minUsableAnswerChars {
				return answer, sources
			}
		}
	}

	return c.extractiveAnswer(query, chunks), sources
}

// buildContextBlock concatenates the top chunks with document and page
// attribution, each capped to a preview length.
func buildContextBlock(chunks []SourceChunk) string {
	limit := len(chunks)
	if limit > maxContextChunks {
		limit = maxContextChunks
	}

	var b strings.Builder
	for i := 0; i < limit; i++ {
		ch := chunks[i]
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "From %s (page %d):\n%s", ch.DocumentTitle, ch.PageNumber, truncate(ch.Text, contextPreviewChars))
	}
	return b.String()
}

// extractiveAnswer scores every sentence in the ranked chunks by how many
// query terms it shares with the query, keeps the best few, and appends a
// passage excerpt from the top chunk plus a page citation list.
func (c *Composer) extractiveAnswer(query string, chunks []SourceChunk) string {
	type scoredSentence struct {
		text  string
		score int
	}

	queryTerms := make(map[string]struct{})
	for _, term := range tokenizeTerms(query) {
		queryTerms[term] = struct{}{}
	}

	var sentences []scoredSentence
	for _, ch := range chunks {
		for _, sentence := range splitSentences(NormalizeText(ch.Text)) {
			score := 0
			seen := make(map[string]struct{})
			for _, term := range tokenizeTerms(sentence) {
				if _, inQuery := queryTerms[term]; !inQuery {
					continue
				}
				if _, dup := seen[term]; dup {
					continue
				}
				seen[term] = struct{}{}
				score++
			}
			if score > 0 {
				sentences = append(sentences, scoredSentence{text: sentence, score: score})
			}
		}
	}

	sort.SliceStable(sentences, func(i, j int) bool {
		return sentences[i].score > sentences[j].score
	})
	if len(sentences) > maxAnswerSentences {
		sentences = sentences[:maxAnswerSentences]
	}

	var b strings.Builder
	if len(sentences) > 0 {
		parts := make([]string, len(sentences))
		for i, s := range sentences {
			parts[i] = s.text
		}
		b.WriteString(strings.Join(parts, ". "))
		b.WriteString(".\n\n")
	}

	top := chunks[0]
	fmt.Fprintf(&b, "Relevant passage from %s (page %d): %s", top.DocumentTitle, top.PageNumber, truncate(top.Text, excerptChars))
	fmt.Fprintf(&b, "\n\nSee page(s) %s.", pageCitation(chunks))
	return b.String()
}

// pageCitation lists the distinct origin pages of the contributing chunks in
// rank order.
func pageCitation(chunks []SourceChunk) string {
	seen := make(map[int]struct{})
	var pages []string
	for _, ch := range chunks {
		if _, ok := seen[ch.PageNumber]; ok {
			continue
		}
		seen[ch.PageNumber] = struct{}{}
		pages = append(pages, fmt.Sprintf("%d", ch.PageNumber))
	}
	return strings.Join(pages, ", ")
}

func buildSources(chunks []SourceChunk) []model.QuerySource {
	sources := make([]model.QuerySource, len(chunks))
	for i, ch := range chunks {
		sources[i] = model.QuerySource{
			DocumentID:      ch.DocumentID,
			DocumentTitle:   ch.DocumentTitle,
			ChunkID:         ch.ChunkID,
			ChunkIndex:      ch.ChunkIndex,
			PageNumber:      ch.PageNumber,
			SimilarityScore: ch.Similarity,
			Rank:            ch.Rank,
			Preview:         truncate(ch.Text, sourcePreviewChars),
		}
	}
	return sources
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
