package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gabrielmiguelok/commentkit/pkg/api"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
		RetryIf:     api.IsRetryable,
	}
}

func TestDoWithResult_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	op := func() (string, error) {
		calls++
		if calls < 3 {
			return "", &api.APIError{Status: 503, Detail: "unavailable"}
		}
		return "ok", nil
	}

	got, err := DoWithResult(context.Background(), fastConfig(), op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q", got)
	}
	if calls != 3 {
		t.Errorf("operation called %d times, want 3", calls)
	}
}

func TestDoWithResult_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	bad := &api.APIError{Status: 400, Detail: "bad input"}
	op := func() (string, error) {
		calls++
		return "", bad
	}

	_, err := DoWithResult(context.Background(), fastConfig(), op)
	if calls != 1 {
		t.Errorf("operation called %d times, want 1", calls)
	}
	if !errors.Is(err, bad) {
		t.Errorf("error = %v, want the original", err)
	}
}

func TestDoWithResult_ExhaustionSurfacesLastErrorUnchanged(t *testing.T) {
	calls := 0
	last := &api.APIError{Status: 502, Detail: "still broken"}
	op := func() (int, error) {
		calls++
		return 0, last
	}

	_, err := DoWithResult(context.Background(), fastConfig(), op)
	if calls != 3 {
		t.Errorf("operation called %d times, want 3", calls)
	}
	if err != error(last) {
		t.Errorf("exhausted error = %v (%T), want the final attempt's error unchanged", err, err)
	}
}

func TestDoWithResult_429IsRetried(t *testing.T) {
	calls := 0
	op := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, &api.APIError{Status: 429}
		}
		return 7, nil
	}

	got, err := DoWithResult(context.Background(), fastConfig(), op)
	if err != nil || got != 7 {
		t.Fatalf("got (%d, %v)", got, err)
	}
	if calls != 2 {
		t.Errorf("operation called %d times, want 2", calls)
	}
}

func TestDo_ContextCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxAttempts: 5,
		BaseDelay:   time.Hour, // only cancellation can end the wait
		Multiplier:  2.0,
	}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error {
			return errors.New("always fails")
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCanceled) {
			t.Errorf("error = %v, want ErrContextCanceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("retry did not observe cancellation")
	}
}

func TestBackoff_ExponentialCurve(t *testing.T) {
	cfg := &Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Minute, Multiplier: 2.0}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}
	for _, c := range cases {
		if got := Backoff(c.attempt, cfg); got != c.want {
			t.Errorf("Backoff(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := &Config{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2.0}
	if got := Backoff(10, cfg); got != 3*time.Second {
		t.Errorf("Backoff(10) = %v, want cap", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxAttempts != 3 || cfg.Jitter != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
