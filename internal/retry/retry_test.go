package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("googleai: rate limit exceeded"), true},
		{"http 503", errors.New("server returned 503"), true},
		{"timeout", errors.New("dial tcp: i/o timeout"), true},
		{"quota", errors.New("Quota Exceeded for project"), true},
		{"bad request", errors.New("invalid argument: empty prompt"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		// Wrapped cancellations stay non-retryable even when the wrapping
		// message matches a transient pattern.
		{"wrapped canceled", fmt.Errorf("request timeout: %w", context.Canceled), false},
		{"wrapped deadline", fmt.Errorf("embedding call: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientFailure(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	e := NewExecutor(fastConfig())

	permanent := errors.New("invalid api key")
	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	e := NewExecutor(fastConfig())

	transient := errors.New("connection reset by peer")
	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls) // 1 attempt + 2 retries
}

func TestDoHonorsCancellation(t *testing.T) {
	e := NewExecutor(Config{
		MaxRetries:   5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := e.Do(ctx, func(context.Context) error {
		return errors.New("504 gateway timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
}
