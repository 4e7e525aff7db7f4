package ai

import (
	"context"
	"fmt"
	"time"

	"mini-rag-backend/internal/logger"
)

// withRetries runs fn up to maxAttempts times, sleeping baseDelay*attempt
// between failures. Context cancellation aborts the wait immediately.
func withRetries(ctx context.Context, op string, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			logger.Warn("external call failed", "op", op, "attempt", attempt, "error", err)
			if attempt < maxAttempts {
				select {
				case <-time.After(baseDelay * time.Duration(attempt)):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, maxAttempts, lastErr)
}
