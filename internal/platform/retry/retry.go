// Package retry re-runs transient failures with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Action tells Do what to do with a failed attempt.
type Action int

const (
	Stop  Action = iota // give up, the error will not go away
	Retry               // transient, back off normally
	After               // throttled, back off by Policy.ThrottleBackoff
)

// Policy bounds the retry loop. Attempts below 1 mean a single attempt.
type Policy struct {
	Attempts        int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	ThrottleBackoff time.Duration
	OnRetry         func(attempt int, err error, wait time.Duration)
}

// Classify maps an error to an Action.
type Classify func(err error) Action

// Do runs op until it succeeds, classify says Stop, the attempts run out, or
// ctx is done. A Stop error comes back wrapped in *PermanentError.
func Do[T any](ctx context.Context, p Policy, classify Classify, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)
	wait := p.Backoff

	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt >= attempts {
			return zero, fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}

		delay := wait
		if action == After && p.ThrottleBackoff > 0 {
			delay = p.ThrottleBackoff
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry interrupted: %w", ctx.Err())
		}
		wait *= 2
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}
}

// PermanentError marks a failure that was not retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
