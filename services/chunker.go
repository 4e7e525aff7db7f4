package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"mini-rag-backend/internal/tokenizer"
	"mini-rag-backend/models"
)

// TextChunker packs sentences into token-budgeted chunks with overlap.
//
// Sentences are never split: a chunk grows sentence by sentence until the
// next sentence would push it past chunkSize, then it is closed and the
// next chunk is seeded with trailing sentences worth up to chunkOverlap
// tokens. A single sentence larger than chunkSize becomes its own chunk.
type TextChunker struct {
	chunkSize    int
	chunkOverlap int
	counter      tokenizer.Counter
	boundary     *regexp.Regexp
}

func NewTextChunker(chunkSize, chunkOverlap int, counter tokenizer.Counter) *TextChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &TextChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		counter:      counter,
		// a run of terminal punctuation followed by whitespace; the
		// uppercase check happens in splitSentences
		boundary: regexp.MustCompile(`[.!?]+\s+`),
	}
}

// splitSentences splits text at sentence boundaries: a run of . ! ?
// followed by whitespace and an uppercase letter, or end of text.
func (tc *TextChunker) splitSentences(text string) []string {
	var sentences []string
	start := 0

	for _, loc := range tc.boundary.FindAllStringIndex(text, -1) {
		r, _ := utf8.DecodeRuneInString(text[loc[1]:])
		if r < 'A' || r > 'Z' {
			continue
		}
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}

	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

// ChunkText segments text into ordered, metadata-tagged chunks. Empty or
// whitespace-only input yields no chunks. Identical input always yields
// identical output.
func (tc *TextChunker) ChunkText(text, source, title, section string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := tc.splitSentences(text)
	if len(sentences) == 0 {
		// fallback: treat the entire input as one sentence
		sentences = []string{text}
	}

	var chunks []models.Chunk
	var current []string
	currentTokens := 0
	position := 0

	emit := func(chunkText string, tokenCount int) {
		chunks = append(chunks, models.Chunk{
			Text: chunkText,
			Metadata: models.ChunkMetadata{
				Source:     source,
				Title:      title,
				Section:    section,
				Position:   position,
				TokenCount: tokenCount,
			},
		})
		position++
	}

	for _, sentence := range sentences {
		sentenceTokens := tc.counter.CountTokens(sentence)

		// An oversized sentence becomes a standalone chunk. It never
		// seeds overlap into the next chunk.
		if sentenceTokens > tc.chunkSize {
			if len(current) > 0 {
				emit(strings.Join(current, " "), currentTokens)
				current = nil
				currentTokens = 0
			}
			emit(sentence, sentenceTokens)
			continue
		}

		if currentTokens+sentenceTokens > tc.chunkSize && len(current) > 0 {
			emit(strings.Join(current, " "), currentTokens)

			// Seed the next chunk with trailing sentences that fit
			// within the overlap budget.
			var overlap []string
			overlapTokens := 0
			for i := len(current) - 1; i >= 0; i-- {
				sTokens := tc.counter.CountTokens(current[i])
				if overlapTokens+sTokens > tc.chunkOverlap {
					break
				}
				overlap = append([]string{current[i]}, overlap...)
				overlapTokens += sTokens
			}

			current = overlap
			currentTokens = overlapTokens
		}

		current = append(current, sentence)
		currentTokens += sentenceTokens
	}

	if len(current) > 0 {
		emit(strings.Join(current, " "), currentTokens)
	}

	return chunks
}
