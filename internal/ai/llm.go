package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mini-rag-backend/internal/config"
	"mini-rag-backend/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// LLMClient wraps the Gemini generative model behind a circuit breaker and
// a client-side rate limiter so a degraded API cannot stall the whole
// service. Retries with backoff are applied per call.
type LLMClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	maxRetries  int
	baseDelay   time.Duration
}

type rateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewLLMClient(ctx context.Context, cfg *config.Config) (*LLMClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for completion model")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10+1)

	return &LLMClient{
		client:      client,
		model:       cfg.GeminiModel,
		temperature: float32(cfg.LLMTemperature),
		maxTokens:   int32(cfg.LLMMaxTokens),
		breaker:     breaker,
		rateLimiter: rateLimiter,
		maxRetries:  cfg.MaxRetries,
		baseDelay:   cfg.RetryBaseDelay,
	}, nil
}

func getRateLimits(tier string) rateLimits {
	switch tier {
	case "tier1":
		return rateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return rateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return rateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// Complete sends one prompt to the model and returns the generated text.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("llm-client")
	ctx, span := tracer.Start(ctx, "llm.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("llm.rate_limited", true))
		return "", err
	}

	var text string
	err := withRetries(ctx, "llm_complete", c.maxRetries, c.baseDelay, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			model := c.client.GenerativeModel(c.model)
			model.SetTemperature(c.temperature)
			model.SetMaxOutputTokens(c.maxTokens)

			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return nil, err
			}
			return resp, nil
		})
		if err != nil {
			return err
		}

		resp := result.(*genai.GenerateContentResponse)
		out := extractResponseText(resp)
		if out == "" {
			return fmt.Errorf("empty completion from model")
		}
		text = out
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("llm.error", true))
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.completion_chars", len(text)))
	return text, nil
}

func (c *LLMClient) Close() error {
	return c.client.Close()
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return strings.TrimSpace(sb.String())
}
