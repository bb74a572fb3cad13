// Package resilience provides the retry and circuit-breaker primitives that
// sit between the session loop and the external voice boundaries.
//
// [Retry] bounds transient transport failures on the transcription upload
// with exponential backoff. [CircuitBreaker] protects the per-turn loop from
// a flapping turn-generation boundary: instead of burning a full retry cycle
// on every user utterance, calls are rejected fast while the boundary is
// known to be down.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"log/slog"
	"time"
)

// RetryConfig holds tuning knobs for [Retry].
type RetryConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3.
	MaxAttempts int

	// BaseDelay is the backoff unit: the delay before attempt n+1 is
	// BaseDelay << n (2 s, 4 s, 8 s, … for a 2 s base). Default: 2s.
	BaseDelay time.Duration

	// Sleep is the wait function, injectable for tests. Defaults to a
	// context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping an exponentially
// growing delay between attempts: BaseDelay after the first failure, doubling
// on every further failure (2 s then 4 s for the default config). Retry
// returns nil on the first success, the last error after the final attempt,
// or the context error if ctx is cancelled while waiting.
//
// fn may return a wrapped permanent error via [Permanent] to stop retrying
// immediately — used for contract violations that a retry cannot fix.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p, ok := err.(*permanentError); ok {
			return p.err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.BaseDelay << (attempt - 1)
		slog.Warn("retrying after failure",
			"name", cfg.Name,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"err", err,
		)
		if serr := cfg.Sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return lastErr
}

// permanentError wraps an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as non-retryable: [Retry] returns it immediately
// without further attempts. Returns nil when err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
