package ai

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"mini-rag-backend/internal/config"
	"mini-rag-backend/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
)

// EmbeddingClient generates embedding vectors through Google Generative AI
// (text-embedding-004 by default). Vectors are cached in Redis by content
// hash when a cache client is provided, so re-ingesting identical text
// does not hit the API again.
type EmbeddingClient struct {
	client    *genai.Client
	model     string
	dimension int
	cfg       *config.Config
	cache     *redis.Client
}

func NewEmbeddingClient(ctx context.Context, cfg *config.Config, cache *redis.Client) (*EmbeddingClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	return &EmbeddingClient{
		client:    client,
		model:     cfg.GoogleEmbeddingsModel,
		dimension: cfg.VectorDimensions,
		cfg:       cfg,
		cache:     cache,
	}, nil
}

// Dimension reports the configured embedding dimension D. Every vector
// returned by this client has exactly this length.
func (e *EmbeddingClient) Dimension() int { return e.dimension }

// EmbedBatch embeds all texts in a single batched API call, returning
// vectors in input order. Cached vectors are served from Redis and only
// the misses are sent to the API.
func (e *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("cannot embed empty text at index %d", i)
		}
	}

	vectors := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	for i, t := range texts {
		if vec := e.cacheGet(ctx, t); vec != nil {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return vectors, nil
	}

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, i := range missIdx {
		batch.AddContent(genai.Text(texts[i]))
	}

	var resp *genai.BatchEmbedContentsResponse
	err := withRetries(ctx, "embed_batch", e.cfg.MaxRetries, e.cfg.RetryBaseDelay, func() error {
		var callErr error
		resp, callErr = em.BatchEmbedContents(ctx, batch)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(missIdx) {
		return nil, fmt.Errorf("embedding batch size mismatch: sent %d, got %d", len(missIdx), len(resp.Embeddings))
	}

	for n, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for batch item %d", n)
		}
		if len(emb.Values) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(emb.Values), e.dimension)
		}
		i := missIdx[n]
		vectors[i] = emb.Values
		e.cacheSet(ctx, texts[i], emb.Values)
	}

	return vectors, nil
}

// EmbedOne embeds a single text. Used on the query path.
func (e *EmbeddingClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	if vec := e.cacheGet(ctx, text); vec != nil {
		return vec, nil
	}

	em := e.client.EmbeddingModel(e.model)

	var resp *genai.EmbedContentResponse
	err := withRetries(ctx, "embed_one", e.cfg.MaxRetries, e.cfg.RetryBaseDelay, func() error {
		var callErr error
		resp, callErr = em.EmbedContent(ctx, genai.Text(text))
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	if len(resp.Embedding.Values) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(resp.Embedding.Values), e.dimension)
	}

	e.cacheSet(ctx, text, resp.Embedding.Values)
	return resp.Embedding.Values, nil
}

func (e *EmbeddingClient) Close() error {
	return e.client.Close()
}

func (e *EmbeddingClient) cacheKey(text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("emb:%s:%s", e.model, hex.EncodeToString(sum[:]))
}

// cacheGet returns nil on any cache miss or error; the cache is best
// effort and never fails a request.
func (e *EmbeddingClient) cacheGet(ctx context.Context, text string) []float32 {
	if e.cache == nil {
		return nil
	}
	raw, err := e.cache.Get(ctx, e.cacheKey(text)).Bytes()
	if err != nil {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil
	}
	if len(vec) != e.dimension {
		return nil
	}
	return vec
}

func (e *EmbeddingClient) cacheSet(ctx context.Context, text string, vec []float32) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, e.cacheKey(text), raw, e.cfg.EmbeddingCacheTTL).Err(); err != nil {
		logger.Debug("embedding cache write failed", "error", err)
	}
}
