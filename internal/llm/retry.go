package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/litgraph/litgraph/internal/config"
)

// withRetry runs fn with exponential backoff: attempt n waits
// backoffBase^n seconds. Context cancellation aborts the wait.
func withRetry(ctx context.Context, cfg config.RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if attempt == cfg.MaxRetries {
				break
			}

			wait := time.Duration(math.Pow(cfg.BackoffBase, float64(attempt)) * float64(time.Second))
			fmt.Fprintf(os.Stderr, "retry %d/%d after %s: %v\n", attempt+1, cfg.MaxRetries, wait, err)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}

	return lastErr
}
