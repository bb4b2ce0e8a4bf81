package rag

import (
	"fmt"
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	got := NormalizeText("  hello \n\t world  \n")
	if got != "hello world" {
		t.Errorf("NormalizeText() = %q, want %q", got, "hello world")
	}
}

func TestSplitSingleChunkWhenTextFits(t *testing.T) {
	t.Parallel()

	text := "Go is expressive. Go is concise. Go is efficient."
	chunks := NewChunker(1000, 200).Split(text)

	if len(chunks) != 1 {
		t.Fatalf("Split() chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("page number = %d, want 1", chunks[0].PageNumber)
	}
	if chunks[0].WordCount != 9 {
		t.Errorf("word count = %d, want 9", chunks[0].WordCount)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t \n"} {
		if chunks := NewChunker(1000, 200).Split(text); len(chunks) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestSplitCoversAllSentences(t *testing.T) {
	t.Parallel()

	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d talks about topic %d", i, i%7))
	}
	text := strings.Join(sentences, ". ") + "."

	chunks := NewChunker(200, 100).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	joined := ""
	for _, ch := range chunks {
		joined += ch.Text + " "
	}
	for _, s := range sentences {
		if !strings.Contains(joined, s) {
			t.Errorf("sentence %q missing from chunk output", s)
		}
	}
}

func TestSplitIndicesAreDense(t *testing.T) {
	t.Parallel()

	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, fmt.Sprintf("This is sentence %d of the test corpus", i))
	}
	chunks := NewChunker(150, 50).Split(strings.Join(sentences, ". "))

	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if strings.TrimSpace(ch.Text) == "" {
			t.Errorf("chunk %d has empty text", i)
		}
	}
}

func TestSplitOversizedSentenceEmittedWhole(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 60) // ~300 chars, one sentence
	text := "Short one. " + strings.TrimSpace(long) + ". Short two."

	chunks := NewChunker(100, 0).Split(text)

	found := false
	for _, ch := range chunks {
		if strings.Contains(ch.Text, strings.TrimSpace(long)) {
			found = true
		}
	}
	if !found {
		t.Error("oversized sentence was not emitted whole")
	}
}

func TestSplitRespectsChunkSizeWithoutOverlap(t *testing.T) {
	t.Parallel()

	var sentences []string
	for i := 0; i < 50; i++ {
		sentences = append(sentences, fmt.Sprintf("Item %02d is here", i))
	}
	chunkSize := 120
	chunks := NewChunker(chunkSize, 0).Split(strings.Join(sentences, ". "))

	for _, ch := range chunks {
		if ch.CharCount > chunkSize {
			t.Errorf("chunk %d length %d exceeds %d: %q", ch.Index, ch.CharCount, chunkSize, ch.Text)
		}
	}
}

func TestSplitOverlapRepeatsTrailingSentence(t *testing.T) {
	t.Parallel()

	var sentences []string
	for i := 0; i < 20; i++ {
		sentences = append(sentences, fmt.Sprintf("Unique marker sentence %02d appears once in the source", i))
	}
	// Overlap of 100 chars converts to two trailing sentences.
	chunks := NewChunker(200, 100).Split(strings.Join(sentences, ". "))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	overlapSeen := false
	for i := 1; i < len(chunks); i++ {
		prev := splitSentences(chunks[i-1].Text)
		last := prev[len(prev)-1]
		if strings.Contains(chunks[i].Text, strings.TrimSuffix(last, ".")) {
			overlapSeen = true
		}
	}
	if !overlapSeen {
		t.Error("no chunk repeats the previous chunk's trailing sentence")
	}
}

func TestSplitPagesKeepsPageNumbers(t *testing.T) {
	t.Parallel()

	pages := []PageText{
		{Number: 1, Text: "Page one content. More of page one."},
		{Number: 2, Text: ""},
		{Number: 3, Text: "Page three content."},
	}
	chunks := NewChunker(1000, 0).SplitPages(pages)

	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if chunks[0].PageNumber != 1 || chunks[1].PageNumber != 3 {
		t.Errorf("page numbers = %d, %d; want 1, 3", chunks[0].PageNumber, chunks[1].PageNumber)
	}
	// Indices stay dense even though page 2 produced nothing.
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("indices = %d, %d; want 0, 1", chunks[0].Index, chunks[1].Index)
	}
}
