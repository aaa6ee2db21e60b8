// Package retry wraps a fallible action with a bounded attempt count.
// Navigation and wait timeouts against the backoffice are ordinary
// transient failures, so both share the same policy.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy executes an action up to MaxAttempts times. Delay is the pause
// between attempts; the backoffice's original behavior is an immediate
// retry, so the zero value means no pause.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Log         *slog.Logger
}

// New returns a policy with maxAttempts and no inter-attempt delay.
func New(maxAttempts int, log *slog.Logger) Policy {
	return Policy{MaxAttempts: maxAttempts, Log: log}
}

// Do runs fn until it succeeds or the attempt budget is spent. The first
// success returns immediately. Exhaustion returns the last error; the
// caller treats that as a local failure for the current item, never as a
// reason to stop the worker. Context cancellation stops retrying early.
func (p Policy) Do(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		if p.Log != nil {
			p.Log.Warn("attempt failed",
				slog.String("action", what),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.String("error", err.Error()))
		}

		if attempt == attempts {
			break
		}
		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return err
}
