// Package vectorstore defines the vector index surface consumed by the
// retrieval pipeline, with MongoDB Atlas and in-memory implementations.
package vectorstore

import (
	"context"

	"mini-rag-backend/models"
)

// Record is one stored vector with its chunk payload. ID is a content
// hash, so upserting the same chunk twice overwrites instead of
// duplicating.
type Record struct {
	ID       string
	Values   []float32
	Text     string
	Metadata models.ChunkMetadata
}

// Match is one similarity-query result. Values may be empty when the
// backing store does not return vectors with search results.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Values   []float32
	Metadata models.ChunkMetadata
}

// Stats summarizes the index contents.
type Stats struct {
	VectorCount int64
	Dimension   int
}

// Store persists vectors and answers nearest-neighbor queries. Matches
// come back ordered by descending similarity.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}
