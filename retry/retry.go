// Package retry provides a fixed-policy bounded exponential backoff for
// fallible calls. The policy is explicit: callers construct it once and
// wrap each remote call, rather than relying on implicit decoration.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy describes the retry schedule: up to MaxAttempts tries, sleeping
// Delay×Backoff^(n-1) between attempt n and n+1. The final error is
// returned unmodified. The policy does not distinguish error causes;
// callers must convert normal outcomes (such as duplicate files) into
// return values before they reach this layer.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
}

// Default matches the bot's fixed schedule: 3 attempts, 5s initial
// delay, doubling.
func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second, Backoff: 2}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 1
	}
	return p
}

// Do runs fn until it succeeds or the policy is exhausted, then returns
// fn's last error. A cancelled context ends the schedule early with the
// context's error.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	p = p.normalized()
	delay := p.Delay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		logger.Warn("retrying after failure",
			"op", op, "attempt", attempt, "max_attempts", p.MaxAttempts,
			"delay", delay, "error", lastErr)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.Backoff)
	}
	logger.Error("all attempts failed", "op", op, "attempts", p.MaxAttempts, "error", lastErr)
	return lastErr
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
