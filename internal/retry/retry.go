// Package retry provides bounded retry with exponential backoff and
// client-side rate limiting for calls to external model services.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config controls retry behavior.
type Config struct {
	MaxRetries        int           // Retries after the first attempt
	InitialDelay      time.Duration // Delay before the first retry
	MaxDelay          time.Duration // Backoff ceiling
	RequestsPerSecond float64       // Client-side rate limit, 0 disables
	Burst             int           // Rate limiter burst size
}

// DefaultConfig returns conservative settings suitable for hosted
// embedding and generation APIs.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
	}
}

// retryablePatterns lists error message substrings that indicate a
// transient failure worth retrying. Grouped by failure class.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429", "resource exhausted"},
	{"500", "502", "503", "504", "unavailable", "overloaded"},
	{"connection reset", "connection refused", "timeout", "temporary"},
}

// IsRetryable reports whether err looks like a transient service
// failure. Context cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Check wrapped chains too: a wrapped cancellation whose message
	// mentions "timeout" must not look transient.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// Executor runs operations with rate limiting and retry.
type Executor struct {
	cfg     Config
	limiter *rate.Limiter
}

// NewExecutor creates an Executor for the given config.
func NewExecutor(cfg Config) *Executor {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Executor{cfg: cfg, limiter: limiter}
}

// Do runs op, retrying transient failures with exponential backoff.
// Every attempt first waits on the rate limiter. Non-retryable errors
// and context cancellation return immediately.
func (e *Executor) Do(ctx context.Context, op func(context.Context) error) error {
	delay := e.cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == e.cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > e.cfg.MaxDelay {
			delay = e.cfg.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts: %w", e.cfg.MaxRetries+1, lastErr)
}
