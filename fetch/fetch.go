// Package fetch wraps market data calls with a classified retry policy.
//
// Upstream failures fall into three classes: throttling (the exchange told
// us how long to wait; retried forever), transient unavailability (retried
// with exponential backoff up to a bounded budget, then fatal), and
// everything else (propagated immediately). Bulk historical fetches and
// live polling share the same Policy value so backtest and live behavior
// stay consistent.
package fetch

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

type Policy struct {
	// MaxAttempts is the transient retry budget. The call that exceeds
	// the budget surfaces a DataError.
	MaxAttempts int
	// Backoff is the first transient retry delay; it doubles per retry.
	Backoff time.Duration
	// Jitter is the maximum random addition to each transient delay.
	Jitter time.Duration
	// Margin is added to every upstream-requested throttle wait.
	Margin time.Duration

	// sleep is replaced in tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Backoff:     time.Second,
		Jitter:      500 * time.Millisecond,
		Margin:      time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Backoff <= 0 {
		p.Backoff = d.Backoff
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Margin <= 0 {
		p.Margin = d.Margin
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

// Do runs op until it succeeds, the retry budget is exhausted, a
// non-retryable error occurs, or ctx is cancelled. Throttled errors never
// count against the budget.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	p = p.withDefaults()

	backoff := p.Backoff
	failures := 0

	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var th *Throttled
		var tr *Transient
		switch {
		case errors.As(err, &th):
			if err := p.sleep(ctx, th.Wait+p.Margin); err != nil {
				return zero, err
			}

		case errors.As(err, &tr):
			failures++
			if failures > p.MaxAttempts {
				return zero, &DataError{Attempts: failures, Err: tr.Err}
			}
			delay := backoff
			if p.Jitter > 0 {
				delay += time.Duration(rand.Float64() * float64(p.Jitter))
			}
			if err := p.sleep(ctx, delay); err != nil {
				return zero, err
			}
			backoff *= 2

		default:
			return zero, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
