package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mini-rag-backend/internal/vectorstore"
	"mini-rag-backend/internal/vectorstore/memory"
	"mini-rag-backend/models"
)

// ErrEmptyQuery is returned when a blank query reaches the pipeline.
// It is an input error: never retried, surfaced directly to the caller.
var ErrEmptyQuery = errors.New("query cannot be empty")

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// RetrievalService embeds a query and asks the vector index for the
// nearest chunks. Index order is preserved unless MMR re-selection is
// enabled.
type RetrievalService struct {
	embedder   QueryEmbedder
	store      vectorstore.Store
	mmrEnabled bool
	mmrLambda  float64
}

func NewRetrievalService(embedder QueryEmbedder, store vectorstore.Store, mmrEnabled bool, mmrLambda float64) *RetrievalService {
	if mmrLambda <= 0 || mmrLambda > 1 {
		mmrLambda = 0.5
	}
	return &RetrievalService{
		embedder:   embedder,
		store:      store,
		mmrEnabled: mmrEnabled,
		mmrLambda:  mmrLambda,
	}
}

// Retrieve returns up to topK chunks ordered by descending similarity.
// An empty result is valid; callers decide whether it is terminal.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]models.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}

	tracer := otel.Tracer("retrieval")
	ctx, span := tracer.Start(ctx, "retrieval.retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", topK))

	queryVec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// With MMR a larger candidate pool is fetched so the diversity
	// re-selection has something to choose from.
	fetchK := topK
	if s.mmrEnabled {
		fetchK = topK * 3
	}

	matches, err := s.store.Query(ctx, queryVec, fetchK)
	if err != nil {
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}

	if s.mmrEnabled && allHaveVectors(matches) {
		matches = mmrSelect(queryVec, matches, topK, s.mmrLambda)
	} else if len(matches) > topK {
		matches = matches[:topK]
	}

	chunks := make([]models.ScoredChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, models.ScoredChunk{
			ID:       m.ID,
			Text:     m.Text,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}

	span.SetAttributes(attribute.Int("retrieval.result_count", len(chunks)))
	return chunks, nil
}

func allHaveVectors(matches []vectorstore.Match) bool {
	for _, m := range matches {
		if len(m.Values) == 0 {
			return false
		}
	}
	return len(matches) > 0
}

// mmrSelect greedily picks candidates maximizing
// lambda*sim(query, c) - (1-lambda)*max sim(c, selected),
// trading query relevance against diversity among already-chosen results.
func mmrSelect(queryVec []float32, candidates []vectorstore.Match, topK int, lambda float64) []vectorstore.Match {
	if len(candidates) <= 1 {
		return candidates
	}

	selected := make([]vectorstore.Match, 0, topK)
	remaining := make([]vectorstore.Match, len(candidates))
	copy(remaining, candidates)

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := 0
		bestScore := -1e18
		for i, c := range remaining {
			relevance := memory.Cosine(queryVec, c.Values)
			redundancy := 0.0
			for _, s := range selected {
				if sim := memory.Cosine(c.Values, s.Values); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
