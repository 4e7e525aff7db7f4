package models

// ChunkMetadata describes where a chunk came from within its document.
// Position is the 0-based index of the chunk within one chunking call and
// never changes after creation.
type ChunkMetadata struct {
	Source     string `json:"source" bson:"source"`
	Title      string `json:"title,omitempty" bson:"title,omitempty"`
	Section    string `json:"section,omitempty" bson:"section,omitempty"`
	Position   int    `json:"position" bson:"position"`
	TokenCount int    `json:"token_count" bson:"token_count"`
}

// Chunk is the atomic retrievable unit produced by the chunker.
// Immutable once created.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a retrieval candidate returned by the vector index.
// Score is the index similarity, higher is better, not normalized.
type ScoredChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// RerankedChunk carries the second-pass relevance score on top of the
// original retrieval candidate.
type RerankedChunk struct {
	ScoredChunk
	RerankerScore float64 `json:"reranker_score"`
}

// Citation binds an inline [n] marker in the generated answer back to the
// chunk it references. CitationNumber is the 1-based position of the chunk
// in the list handed to the synthesizer, not a property of the chunk itself.
type Citation struct {
	CitationNumber int    `json:"citation_number"`
	Text           string `json:"text"`
	Source         string `json:"source,omitempty"`
	Title          string `json:"title,omitempty"`
	Position       int    `json:"position"`
}

// IndexedScore is one relevance score from the external reranking model,
// tied to the index of the document it was computed for. The model may
// return results in any order.
type IndexedScore struct {
	Index int     `json:"index"`
	Score float64 `json:"relevance_score"`
}
