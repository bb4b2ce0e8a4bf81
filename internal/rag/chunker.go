package rag

import (
	"strings"
	"unicode/utf8"
)

// avgSentenceChars converts a character overlap budget into a trailing
// sentence count. Heuristic; only the presence of bounded overlap matters.
const avgSentenceChars = 50

// PageText is one page of raw source text, as handed over by extraction.
type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk is one overlapping segment of a document. Index is dense 0..n-1
// across the whole document, PageNumber is the 1-based origin page.
type Chunk struct {
	Index      int
	PageNumber int
	Text       string
	CharCount  int
	WordCount  int
}

// Chunker splits normalized text into size-bounded chunks on sentence
// boundaries, seeding each new chunk with the tail of the previous one.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// NormalizeText flattens newlines and collapses whitespace runs to single
// spaces. Chunking always operates on normalized text.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split chunks a single body of text, treating it as page 1.
func (c *Chunker) Split(text string) []Chunk {
	return c.SplitPages([]PageText{{Number: 1, Text: text}})
}

// SplitPages chunks each page on ". " sentence boundaries, accumulating
// sentences until the next one would exceed the chunk size. A sentence longer
// than the chunk size is still emitted whole. Chunks never cross pages.
// Indices stay dense because empty buffers are never emitted.
func (c *Chunker) SplitPages(pages []PageText) []Chunk {
	var chunks []Chunk

	for _, page := range pages {
		text := NormalizeText(page.Text)
		if text == "" {
			continue
		}

		sentences := splitSentences(text)
		var buf []string
		bufChars := 0

		emit := func() {
			joined := strings.TrimSpace(strings.Join(buf, ". "))
			if joined == "" {
				return
			}
			chunks = append(chunks, Chunk{
				Index:      len(chunks),
				PageNumber: page.Number,
				Text:       joined,
				CharCount:  utf8.RuneCountInString(joined),
				WordCount:  len(strings.Fields(joined)),
			})
		}

		for _, sentence := range sentences {
			sentenceLen := utf8.RuneCountInString(sentence)
			if len(buf) > 0 && bufChars+sentenceLen+2 > c.chunkSize {
				emit()
				buf = overlapTail(buf, c.overlap)
				bufChars = joinedLen(buf)
			}
			buf = append(buf, sentence)
			bufChars += sentenceLen
			if len(buf) > 1 {
				bufChars += 2
			}
		}
		emit()
	}

	return chunks
}

func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overlapTail returns the trailing sentences carried into the next chunk.
func overlapTail(sentences []string, overlap int) []string {
	n := overlap / avgSentenceChars
	if n <= 0 {
		return nil
	}
	if n > len(sentences) {
		n = len(sentences)
	}
	tail := sentences[len(sentences)-n:]
	out := make([]string, len(tail))
	copy(out, tail)
	return out
}

func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	total := 2 * (len(sentences) - 1)
	for _, s := range sentences {
		total += utf8.RuneCountInString(s)
	}
	return total
}
