// Package mongodb implements the vector store on a MongoDB Atlas
// collection with a $vectorSearch index.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mini-rag-backend/internal/vectorstore"
	"mini-rag-backend/models"
)

type Store struct {
	collection *mongo.Collection
	indexName  string
	dimension  int
}

// chunkDoc is the persisted shape of one vector record. The _id is the
// caller-supplied content hash, which makes repeated upserts overwrite.
type chunkDoc struct {
	ID         string    `bson:"_id"`
	Text       string    `bson:"text"`
	Source     string    `bson:"source"`
	Title      string    `bson:"title,omitempty"`
	Section    string    `bson:"section,omitempty"`
	Position   int       `bson:"position"`
	TokenCount int       `bson:"token_count"`
	Vector     []float32 `bson:"vector"`
	Score      float64   `bson:"score,omitempty"`
}

func NewStore(collection *mongo.Collection, indexName string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dimension)
	}
	return &Store{
		collection: collection,
		indexName:  indexName,
		dimension:  dimension,
	}, nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		if len(r.Values) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", r.ID, len(r.Values), s.dimension)
		}
		doc := bson.M{
			"text":        r.Text,
			"source":      r.Metadata.Source,
			"position":    r.Metadata.Position,
			"token_count": r.Metadata.TokenCount,
			"vector":      r.Values,
		}
		if r.Metadata.Title != "" {
			doc["title"] = r.Metadata.Title
		}
		if r.Metadata.Section != "" {
			doc["section"] = r.Metadata.Section
		}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": r.ID}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: got %d, want %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: topK * 10},
			{Key: "limit", Value: topK},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "text", Value: 1},
			{Key: "source", Value: 1},
			{Key: "title", Value: 1},
			{Key: "section", Value: 1},
			{Key: "position", Value: 1},
			{Key: "token_count", Value: 1},
			{Key: "vector", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var matches []vectorstore.Match
	for cursor.Next(ctx) {
		var doc chunkDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode search result: %w", err)
		}
		matches = append(matches, vectorstore.Match{
			ID:     doc.ID,
			Score:  doc.Score,
			Text:   doc.Text,
			Values: doc.Vector,
			Metadata: models.ChunkMetadata{
				Source:     doc.Source,
				Title:      doc.Title,
				Section:    doc.Section,
				Position:   doc.Position,
				TokenCount: doc.TokenCount,
			},
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("vector search cursor error: %w", err)
	}

	return matches, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (vectorstore.Stats, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("failed to count vectors: %w", err)
	}
	return vectorstore.Stats{VectorCount: count, Dimension: s.dimension}, nil
}
