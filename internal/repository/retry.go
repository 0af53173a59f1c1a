package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/logx"
)

type counter interface {
	Inc()
}

// RetryConfig describes how transient store errors are retried.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Retrier re-runs store operations that fail with apperr.ErrTransient.
type Retrier struct {
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
	sleep   func(context.Context, time.Duration) bool
}

// NewRetrier builds a Retrier; retries may be nil.
func NewRetrier(logger logx.Logger, retries counter, cfg RetryConfig) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Retrier{logger: logger, retries: retries, cfg: cfg, sleep: sleepWithContext}
}

// Do runs fn until it succeeds, fails permanently, attempts run out or ctx is done.
func (r *Retrier) Do(ctx context.Context, method string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !errors.Is(err, apperr.ErrTransient) {
			break
		}
		if attempt == r.cfg.MaxAttempts {
			if attempt > 1 {
				return fmt.Errorf("%s after %d attempts: %w: %w", method, attempt, apperr.ErrRetriesExhausted, err)
			}
			break
		}
		delay := backoff(r.cfg.BaseDelay, r.cfg.MaxDelay, attempt)
		if r.retries != nil {
			r.retries.Inc()
		}
		r.logger.Warn("store retry",
			logx.String("method", method),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !r.sleep(ctx, delay) {
			break
		}
	}
	return lastErr
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
