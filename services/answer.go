package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mini-rag-backend/internal/logger"
	"mini-rag-backend/models"
)

// NoInformationAnswer is returned when the synthesizer has no chunks to
// work with. No model call is made in that case.
const NoInformationAnswer = "No relevant information found in the provided sources."

// fallbackAnswer is served when the completion model fails after retries.
const fallbackAnswer = "I apologize, but I encountered an error while processing your query. Please try again."

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// CompletionModel produces text for a prompt.
type CompletionModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnswerResult is the outcome of answer synthesis. Fallback marks a
// recovered model failure: the answer is a fixed apology and citations
// are empty.
type AnswerResult struct {
	Answer    string
	Citations []models.Citation
	Fallback  bool
}

// AnswerService turns a query plus ranked chunks into a grounded answer
// with inline [n] citations mapped back to the source chunks.
type AnswerService struct {
	model CompletionModel
}

func NewAnswerService(model CompletionModel) *AnswerService {
	return &AnswerService{model: model}
}

// GenerateAnswer calls the model once with a numbered-source prompt and
// parses the citation markers out of the response.
func (s *AnswerService) GenerateAnswer(ctx context.Context, query string, chunks []models.RerankedChunk) (AnswerResult, error) {
	if strings.TrimSpace(query) == "" {
		return AnswerResult{}, ErrEmptyQuery
	}
	if len(chunks) == 0 {
		return AnswerResult{Answer: NoInformationAnswer, Citations: []models.Citation{}}, nil
	}

	tracer := otel.Tracer("answer")
	ctx, span := tracer.Start(ctx, "answer.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("answer.source_count", len(chunks)))

	prompt := buildPrompt(query, formatSources(chunks))

	answer, err := s.model.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("answer synthesis degraded to apology fallback", "error", err)
		span.SetAttributes(attribute.Bool("answer.fallback", true))
		return AnswerResult{
			Answer:    fallbackAnswer,
			Citations: []models.Citation{},
			Fallback:  true,
		}, nil
	}

	citations := extractCitations(answer, chunks)
	span.SetAttributes(attribute.Int("answer.citation_count", len(citations)))

	return AnswerResult{Answer: answer, Citations: citations}, nil
}

// formatSources renders chunks as a numbered source block. Chunk at list
// position i (1-based) is labeled [i]; the citation numbers in the answer
// refer back to these labels.
func formatSources(chunks []models.RerankedChunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		title := c.Metadata.Title
		if title == "" {
			title = "Source"
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, title)
		if c.Metadata.Section != "" {
			fmt.Fprintf(&sb, " - %s", c.Metadata.Section)
		}
		sb.WriteString("\n")
		sb.WriteString(c.Text)
		if i < len(chunks)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func buildPrompt(query, sources string) string {
	return fmt.Sprintf(`You are a helpful AI assistant. Answer the question based on the provided sources below.

IMPORTANT RULES:
1. Base your answer primarily on the numbered sources [1], [2], etc.
2. Include citations using [1], [2], etc. after sentences that reference a source.
3. Synthesize information across multiple sources when relevant.
4. If the sources provide partial information, answer what you can and note any gaps.
5. Only if the sources contain NO relevant information at all, say "I cannot find this information in the provided sources."
6. Be concise, accurate, and helpful.

SOURCES:
%s

QUESTION: %s

ANSWER:`, sources, query)
}

// extractCitations collects the distinct [n] markers in order of first
// appearance in the answer and maps each in-range n to chunks[n-1].
// Out-of-range markers are dropped.
func extractCitations(answer string, chunks []models.RerankedChunk) []models.Citation {
	seen := make(map[int]bool)
	citations := []models.Citation{}

	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true

		if n < 1 || n > len(chunks) {
			continue
		}

		chunk := chunks[n-1]
		citations = append(citations, models.Citation{
			CitationNumber: n,
			Text:           chunk.Text,
			Source:         chunk.Metadata.Source,
			Title:          chunk.Metadata.Title,
			Position:       chunk.Metadata.Position,
		})
	}

	return citations
}
