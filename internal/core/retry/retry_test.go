package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSleep replaces the backoff wait with a recorder so tests run instantly.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()

	var waits []time.Duration
	original := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &waits
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	waits := stubSleep(t)

	calls := 0
	result, err := Do(context.Background(), discardLogger(), "test_op", 5, func(context.Context) (string, error) {
		calls++
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestDo_SucceedsAfterTwoFailures(t *testing.T) {
	waits := stubSleep(t)

	calls := 0
	result, err := Do(context.Background(), discardLogger(), "test_op", 5, func(context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *waits)
}

func TestDo_PropagatesFinalError(t *testing.T) {
	waits := stubSleep(t)

	finalErr := errors.New("still broken")
	calls := 0
	_, err := Do(context.Background(), discardLogger(), "test_op", 3, func(context.Context) (struct{}, error) {
		calls++
		if calls < 3 {
			return struct{}{}, errors.New("transient")
		}
		return struct{}{}, finalErr
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, finalErr)
	// No wait after the terminal attempt.
	assert.Len(t, *waits, 2)
}

func TestDo_ZeroMaxAttemptsUsesDefault(t *testing.T) {
	stubSleep(t)

	calls := 0
	_, err := Do(context.Background(), discardLogger(), "test_op", 0, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("always")
	})

	assert.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	original := sleep
	sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}
	t.Cleanup(func() { sleep = original })

	calls := 0
	_, err := Do(context.Background(), discardLogger(), "test_op", 5, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleep_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep_ZeroDuration(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), 0))
}
