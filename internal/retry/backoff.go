// Package retry runs an operation again with exponential backoff until
// it succeeds, fails permanently, or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError marks an error that another attempt cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that [Backoff.Do] returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked with [Permanent].
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff is an exponential retry schedule.  The zero value retries
// forever, starting at one second and doubling up to a minute.
type Backoff struct {
	InitialDelay time.Duration // first wait (default 1s)
	MaxDelay     time.Duration // cap on any single wait (default 60s)
	Multiplier   float64       // growth per attempt (default 2)
	MaxAttempts  int           // total tries including the first, 0 = unlimited
	Jitter       bool          // spread each wait by ±25%

	// OnRetry, when set, is called after a failed attempt and before
	// the wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the schedule used for binding the listener.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       true,
	}
}

// Do calls fn with a 1-based attempt number until it returns nil.  A
// [Permanent] error is unwrapped and returned immediately; running out
// of attempts returns the last error wrapped; ctx cancellation returns
// the context error.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}

		delay = min(time.Duration(float64(delay)*multiplier), maxDelay)
	}
}

// addJitter moves d by up to a quarter in either direction, never below
// one millisecond.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := rand.Float64()*2*quarter - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
