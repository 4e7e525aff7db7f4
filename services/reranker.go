package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mini-rag-backend/internal/logger"
	"mini-rag-backend/models"
)

// ErrNoChunks is returned when an empty candidate list reaches a stage
// that requires at least one chunk.
var ErrNoChunks = errors.New("no chunks to rerank")

// RelevanceScorer scores every document against a query in one call.
// Results carry the index of the document they belong to and may arrive
// in any order.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, documents []string) ([]models.IndexedScore, error)
}

// RerankResult is the outcome of a rerank pass. Fallback is set when the
// external model failed and the retrieval order was kept instead; that is
// a recovered degradation, not an error.
type RerankResult struct {
	Chunks   []models.RerankedChunk
	Fallback bool
}

// RerankerService reorders retrieval candidates using a second-pass
// relevance model.
type RerankerService struct {
	scorer RelevanceScorer
}

func NewRerankerService(scorer RelevanceScorer) *RerankerService {
	return &RerankerService{scorer: scorer}
}

// Rerank scores chunks against the query and returns at most topK of
// them, ordered by descending reranker score with ties broken by original
// retrieval order.
func (s *RerankerService) Rerank(ctx context.Context, query string, chunks []models.ScoredChunk, topK int) (RerankResult, error) {
	if strings.TrimSpace(query) == "" {
		return RerankResult{}, ErrEmptyQuery
	}
	if len(chunks) == 0 {
		return RerankResult{}, ErrNoChunks
	}
	if topK <= 0 {
		topK = len(chunks)
	}

	tracer := otel.Tracer("reranker")
	ctx, span := tracer.Start(ctx, "reranker.rerank")
	defer span.End()
	span.SetAttributes(
		attribute.Int("rerank.candidates", len(chunks)),
		attribute.Int("rerank.top_k", topK),
	)

	documents := make([]string, len(chunks))
	for i, c := range chunks {
		documents[i] = c.Text
	}

	scores, err := s.scorer.Score(ctx, query, documents)
	if err != nil {
		// Degrade to the retrieval order rather than failing the query.
		logger.Warn("reranker degraded to retrieval order", "error", err)
		span.SetAttributes(attribute.Bool("rerank.fallback", true))

		limit := topK
		if limit > len(chunks) {
			limit = len(chunks)
		}
		fallback := make([]models.RerankedChunk, 0, limit)
		for _, c := range chunks[:limit] {
			fallback = append(fallback, models.RerankedChunk{ScoredChunk: c})
		}
		return RerankResult{Chunks: fallback, Fallback: true}, nil
	}

	// Scores are re-associated by the index the model reports, not by
	// arrival order; the model may return results permuted.
	type scored struct {
		chunk models.RerankedChunk
		orig  int
	}
	entries := make([]scored, 0, len(scores))
	for _, sc := range scores {
		if sc.Index < 0 || sc.Index >= len(chunks) {
			continue
		}
		entries = append(entries, scored{
			chunk: models.RerankedChunk{
				ScoredChunk:   chunks[sc.Index],
				RerankerScore: sc.Score,
			},
			orig: sc.Index,
		})
	}

	// descending by reranker score, ties broken by retrieval order
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].chunk.RerankerScore != entries[j].chunk.RerankerScore {
			return entries[i].chunk.RerankerScore > entries[j].chunk.RerankerScore
		}
		return entries[i].orig < entries[j].orig
	})

	if len(entries) > topK {
		entries = entries[:topK]
	}

	reranked := make([]models.RerankedChunk, len(entries))
	for i, e := range entries {
		reranked[i] = e.chunk
	}

	span.SetAttributes(attribute.Int("rerank.result_count", len(reranked)))
	return RerankResult{Chunks: reranked}, nil
}
