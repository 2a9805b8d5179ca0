// Package retry decorates fallible operations with bounded retries and
// exponential backoff. Classification of what is worth retrying is the
// caller's: pass api.IsRetryable (or any predicate) as RetryIf.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrContextCanceled reports cancellation while waiting between attempts.
var ErrContextCanceled = errors.New("context canceled during retry")

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total attempt budget, counting the first call.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. Attempt N (from 1)
	// waits BaseDelay * Multiplier^(N-1) before attempt N+1.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// Multiplier is the backoff growth factor.
	Multiplier float64

	// Jitter is a randomization factor (0-1). Zero keeps the backoff
	// exactly on the exponential curve.
	Jitter float64

	// RetryIf decides whether an error is worth another attempt.
	// If nil, every error is retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the widget's defaults: three attempts with a
// 500ms base delay and no jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Do executes fn with retry logic. The error from the final exhausted
// attempt is returned unchanged.
func Do(ctx context.Context, config *Config, fn func() error) error {
	_, err := DoWithResult(ctx, config, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes a value-returning operation with retry logic.
func DoWithResult[T any](ctx context.Context, config *Config, fn func() (T, error)) (T, error) {
	var zero T
	if config == nil {
		config = DefaultConfig()
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ErrContextCanceled
		default:
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if config.RetryIf != nil && !config.RetryIf(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := Backoff(attempt, config)
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}

		// Timer wait, never a busy loop; cancellation cuts it short.
		select {
		case <-ctx.Done():
			return zero, ErrContextCanceled
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// Backoff returns the delay applied after the given attempt (from 1):
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func Backoff(attempt int, config *Config) time.Duration {
	if config == nil {
		config = DefaultConfig()
	}
	if attempt < 1 {
		attempt = 1
	}

	mult := config.Multiplier
	if mult <= 0 {
		mult = 2.0
	}

	delay := float64(config.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if config.Jitter > 0 {
		j := delay * config.Jitter
		delay = delay - j + rand.Float64()*2*j
	}
	return time.Duration(delay)
}
