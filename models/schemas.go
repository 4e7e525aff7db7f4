package models

// ChunkDetail mirrors a produced chunk in the ingest response.
type ChunkDetail struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Title      string `json:"title,omitempty"`
	Section    string `json:"section,omitempty"`
	Position   int    `json:"position"`
	TokenCount int    `json:"token_count"`
}

// IngestRequest is the payload for POST /ingest.
type IngestRequest struct {
	Text   string `json:"text" binding:"required"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// IngestResponse reports what was chunked and stored.
type IngestResponse struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	ChunkCount int           `json:"chunk_count"`
	DocumentID string        `json:"document_id"`
	Chunks     []ChunkDetail `json:"chunks"`
}

// QueryRequest is the payload for POST /query.
// TopK is bounded to 1..20; nil means the configured default.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  *int   `json:"top_k"`
}

// QueryResponse carries the synthesized answer with its citations.
// Fallback is set when the reranker or the language model degraded to a
// safe default instead of failing the request.
type QueryResponse struct {
	Answer          string     `json:"answer"`
	Citations       []Citation `json:"citations"`
	RetrievedChunks int        `json:"retrieved_chunks"`
	LatencyMs       float64    `json:"latency_ms"`
	Fallback        bool       `json:"fallback,omitempty"`
}

// IndexStatsResponse reports vector index statistics.
type IndexStatsResponse struct {
	VectorCount int64 `json:"vector_count"`
	Dimension   int   `json:"dimension"`
}
