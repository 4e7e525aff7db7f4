package ai

import (
	"context"
	"os"
	"testing"

	"mini-rag-backend/internal/config"
)

func TestEmbedOneLive(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}
	client, err := NewEmbeddingClient(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	defer client.Close()

	vec, err := client.EmbedOne(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) != client.Dimension() {
		t.Fatalf("got %d dimensions, want %d", len(vec), client.Dimension())
	}
}

func TestEmbedBatchRejectsEmptyInput(t *testing.T) {
	client := &EmbeddingClient{model: "test", dimension: 4, cfg: &config.Config{MaxRetries: 1}}

	if _, err := client.EmbedBatch(context.Background(), nil); err == nil {
		t.Error("expected error for empty batch")
	}
	if _, err := client.EmbedBatch(context.Background(), []string{"ok", "  "}); err == nil {
		t.Error("expected error for blank text in batch")
	}
	if _, err := client.EmbedOne(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
}
