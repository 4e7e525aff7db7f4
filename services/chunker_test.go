package services

import (
	"fmt"
	"strings"
	"testing"
)

// wordCounter counts one token per whitespace-separated word, which makes
// test budgets exact.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func TestChunkEmptyInput(t *testing.T) {
	tc := NewTextChunker(50, 10, wordCounter{})

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := tc.ChunkText(input, "src", "", ""); len(got) != 0 {
			t.Errorf("ChunkText(%q) = %d chunks, want 0", input, len(got))
		}
	}
}

func TestChunkSingleShortText(t *testing.T) {
	tc := NewTextChunker(50, 10, wordCounter{})

	chunks := tc.ChunkText("Hello world. This is fine.", "src", "Title", "")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world. This is fine." {
		t.Errorf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].Metadata.Position != 0 {
		t.Errorf("position = %d, want 0", chunks[0].Metadata.Position)
	}
	if chunks[0].Metadata.TokenCount != 5 {
		t.Errorf("token count = %d, want 5", chunks[0].Metadata.TokenCount)
	}
	if chunks[0].Metadata.Title != "Title" {
		t.Errorf("title not carried: %q", chunks[0].Metadata.Title)
	}
}

func TestChunkNoSentenceBoundaries(t *testing.T) {
	tc := NewTextChunker(50, 10, wordCounter{})

	// no terminal punctuation anywhere; entire input is one sentence
	chunks := tc.ChunkText("just a run of words with no punctuation at all", "src", "", "")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestChunkBoundaryRequiresUppercase(t *testing.T) {
	tc := NewTextChunker(50, 10, wordCounter{})

	// "e.g. lowercase" must not split because the next letter is lowercase
	chunks := tc.ChunkText("This uses e.g. lowercase continuation. Next sentence here.", "src", "", "")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	sentences := tc.splitSentences("This uses e.g. lowercase continuation. Next sentence here.")
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %q", len(sentences), sentences)
	}
}

func TestChunkPositionsContiguous(t *testing.T) {
	tc := NewTextChunker(10, 3, wordCounter{})

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "Sentence number %d ends here. ", i)
	}

	chunks := tc.ChunkText(sb.String(), "src", "", "")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Metadata.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Metadata.Position)
		}
	}
}

func TestChunkTokenBudget(t *testing.T) {
	const chunkSize = 12
	tc := NewTextChunker(chunkSize, 4, wordCounter{})

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "Word word word sentence %d. ", i)
	}

	chunks := tc.ChunkText(sb.String(), "src", "", "")
	for i, c := range chunks[:len(chunks)-1] {
		if c.Metadata.TokenCount > chunkSize {
			t.Errorf("chunk %d exceeds budget: %d > %d", i, c.Metadata.TokenCount, chunkSize)
		}
	}
}

func TestChunkOverlapSeeding(t *testing.T) {
	const overlap = 10
	tc := NewTextChunker(20, overlap, wordCounter{})
	counter := wordCounter{}

	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "This sentence carries five words %d. ", i)
	}

	chunks := tc.ChunkText(sb.String(), "src", "", "")
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	for i := 0; i < len(chunks)-1; i++ {
		prev := strings.Split(chunks[i].Text, ". ")
		next := chunks[i+1].Text

		// collect the trailing sentences of chunk i that fit the overlap
		// budget; chunk i+1 must begin with exactly those
		var seed []string
		seedTokens := 0
		for j := len(prev) - 1; j >= 0; j-- {
			s := strings.TrimSpace(prev[j])
			if !strings.HasSuffix(s, ".") {
				s += "."
			}
			n := counter.CountTokens(s)
			if seedTokens+n > overlap {
				break
			}
			seed = append([]string{s}, seed...)
			seedTokens += n
		}

		if seedTokens > overlap {
			t.Errorf("seed token count %d exceeds overlap %d", seedTokens, overlap)
		}
		if len(seed) > 0 && !strings.HasPrefix(next, seed[0]) {
			t.Errorf("chunk %d does not start with overlap seed %q: %q", i+1, seed[0], next)
		}
	}
}

func TestChunkOversizedSentence(t *testing.T) {
	tc := NewTextChunker(10, 3, wordCounter{})

	huge := "Giant " + strings.Repeat("word ", 20) + "sentence never splits further ever."
	text := "Small start here. " + huge + " Then another small one. And one more to finish."

	chunks := tc.ChunkText(text, "src", "", "")
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	var oversizedIdx = -1
	for i, c := range chunks {
		if strings.HasPrefix(c.Text, "Giant") {
			oversizedIdx = i
			break
		}
	}
	if oversizedIdx == -1 {
		t.Fatal("oversized sentence chunk not found")
	}

	oversized := chunks[oversizedIdx]
	if oversized.Metadata.TokenCount <= 10 {
		t.Errorf("oversized chunk token count %d should exceed budget", oversized.Metadata.TokenCount)
	}
	if strings.Contains(oversized.Text, "Small start") {
		t.Error("oversized sentence was merged with pending chunk")
	}

	// the oversized sentence must not seed overlap into the next chunk
	if oversizedIdx+1 < len(chunks) {
		if strings.Contains(chunks[oversizedIdx+1].Text, "Giant") {
			t.Error("oversized sentence leaked into the following chunk")
		}
	}
}

func TestChunkTwoChunkScenario(t *testing.T) {
	// chunk_size=50, overlap=10, 20 short sentences of 4 tokens each
	// (80 tokens total): chunk 0 takes the first 12 sentences (48
	// tokens), chunk 1 opens with an 8-token seed from chunk 0's tail.
	tc := NewTextChunker(50, 10, wordCounter{})
	counter := wordCounter{}

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Tiny sentence %d here. ", i)
	}

	chunks := tc.ChunkText(sb.String(), "doc", "", "")
	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.Position != 0 || chunks[1].Metadata.Position != 1 {
		t.Errorf("positions = %d, %d; want 0, 1", chunks[0].Metadata.Position, chunks[1].Metadata.Position)
	}

	// chunk 1 must open with trailing sentences of chunk 0 worth at
	// most 10 tokens
	tail := strings.Split(chunks[0].Text, ". ")
	var seed []string
	seedTokens := 0
	for j := len(tail) - 1; j >= 0; j-- {
		s := strings.TrimSpace(tail[j])
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		n := counter.CountTokens(s)
		if seedTokens+n > 10 {
			break
		}
		seed = append([]string{s}, seed...)
		seedTokens += n
	}

	if seedTokens == 0 || seedTokens > 10 {
		t.Fatalf("overlap seed is %d tokens, want in (0, 10]", seedTokens)
	}
	if !strings.HasPrefix(chunks[1].Text, strings.Join(seed, " ")) {
		t.Errorf("chunk 1 does not open with chunk 0's tail %q: %q", strings.Join(seed, " "), chunks[1].Text)
	}
}

func TestChunkDeterminism(t *testing.T) {
	tc := NewTextChunker(15, 5, wordCounter{})

	var sb strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "Deterministic sentence number %d. ", i)
	}
	text := sb.String()

	first := tc.ChunkText(text, "src", "t", "s")
	for run := 0; run < 5; run++ {
		again := tc.ChunkText(text, "src", "t", "s")
		if len(again) != len(first) {
			t.Fatalf("chunk count changed: %d != %d", len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("chunk %d changed between runs", i)
			}
		}
	}
}
