// Package retry wraps transient-failure-prone delivery operations with
// exponential backoff. In-memory fan-out never goes through here; only
// outbound paths (webhooks, notification channels) do.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxAttempts is the attempt budget used when callers pass 0.
const DefaultMaxAttempts = 5

// sleep waits for the backoff duration while honouring context
// cancellation. Overridable in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes op until it succeeds or the attempt budget is exhausted,
// waiting Backoff(attempt) between attempts. The first success returns
// immediately; the final failure is propagated as the operation's own error.
// Callers must supply an idempotent or retry-safe operation.
//
// Backoff waits suspend only the calling goroutine, so concurrent
// deliveries retry independently.
func Do[T any](ctx context.Context, logger *slog.Logger, name string, maxAttempts int, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		wait := Backoff(attempt)
		logger.Warn("operation failed, retrying",
			"operation", name,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"backoff", wait,
			"error", err,
		)
		if err := sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("%s: retry aborted: %w", name, err)
		}
	}

	logger.Error("operation failed after all attempts",
		"operation", name,
		"attempts", maxAttempts,
		"error", lastErr,
	)
	return zero, lastErr
}
