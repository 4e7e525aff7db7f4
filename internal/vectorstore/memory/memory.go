// Package memory provides a brute-force in-memory vector store for local
// runs and tests.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"mini-rag-backend/internal/vectorstore"
)

// Store keeps vectors in process memory and scores queries with cosine
// similarity over every stored vector.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]vectorstore.Record
}

func NewStore(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	return &Store{
		dimension: dimension,
		records:   make(map[string]vectorstore.Record),
	}, nil
}

func (s *Store) Upsert(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.ID == "" {
			return errors.New("record id cannot be empty")
		}
		if len(r.Values) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if len(vector) != s.dimension {
		return nil, errors.New("query vector dimension mismatch")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vectorstore.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, vectorstore.Match{
			ID:       r.ID,
			Score:    Cosine(r.Values, vector),
			Text:     r.Text,
			Values:   r.Values,
			Metadata: r.Metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		// deterministic order for equal scores
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]vectorstore.Record)
	return nil
}

func (s *Store) Stats(_ context.Context) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Stats{
		VectorCount: int64(len(s.records)),
		Dimension:   s.dimension,
	}, nil
}

// Cosine computes cosine similarity between two equal-length vectors.
// Zero vectors score 0.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
