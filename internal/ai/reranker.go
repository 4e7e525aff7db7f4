package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mini-rag-backend/internal/config"
	"mini-rag-backend/models"
)

// RerankClient talks to the Jina rerank REST API. One call scores a full
// candidate list against a query; each score comes back tagged with the
// index of the document it belongs to.
type RerankClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	maxRetries int
	cfg        *config.Config
}

type rerankDocument struct {
	Text string `json:"text"`
}

type rerankRequest struct {
	Model     string           `json:"model"`
	Query     string           `json:"query"`
	Documents []rerankDocument `json:"documents"`
	TopN      int              `json:"top_n"`
}

type rerankResponse struct {
	Results []models.IndexedScore `json:"results"`
	Detail  string                `json:"detail,omitempty"`
}

func NewRerankClient(cfg *config.Config) (*RerankClient, error) {
	if cfg.JinaAPIKey == "" {
		return nil, fmt.Errorf("missing JINA_API_KEY for reranker")
	}

	return &RerankClient{
		apiKey: cfg.JinaAPIKey,
		apiURL: cfg.JinaRerankURL,
		model:  cfg.JinaRerankModel,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		cfg: cfg,
	}, nil
}

// Score returns one relevance score per document, keyed by index. Scores
// for the whole candidate list are requested so the caller can reorder
// and truncate itself.
func (r *RerankClient) Score(ctx context.Context, query string, documents []string) ([]models.IndexedScore, error) {
	if len(documents) == 0 {
		return nil, fmt.Errorf("no documents to score")
	}

	docs := make([]rerankDocument, len(documents))
	for i, d := range documents {
		docs[i] = rerankDocument{Text: d}
	}

	request := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: docs,
		TopN:      len(documents),
	}

	var scores []models.IndexedScore
	err := withRetries(ctx, "rerank", r.cfg.MaxRetries, r.cfg.RetryBaseDelay, func() error {
		resp, err := r.makeRequest(ctx, request)
		if err != nil {
			return err
		}
		scores = resp.Results
		return nil
	})
	if err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *RerankClient) makeRequest(ctx context.Context, request rerankRequest) (*rerankResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API returned %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %v", err)
	}

	if len(rerankResp.Results) == 0 {
		return nil, fmt.Errorf("no results in rerank response")
	}

	return &rerankResp, nil
}
