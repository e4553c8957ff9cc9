package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// RetryPolicy bounds how the coordinator retries remote calls. Only
// rate-limited and transient failures are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 5 attempts starting at 500ms, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryAfterBackOff stretches the next wait to the server's Retry-After hint.
type retryAfterBackOff struct {
	backoff.BackOff
	last *error
}

func (b retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	var rerr *driven.RemoteError
	if errors.As(*b.last, &rerr) && rerr.RetryAfter > next {
		return rerr.RetryAfter
	}
	return next
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt ceiling is reached. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return p.do(ctx, op, driven.IsRetryable, fn)
}

// DoRateLimited retries only rate-limited failures. Used for non-idempotent
// calls, where a transient failure may have been applied remotely.
func (p RetryPolicy) DoRateLimited(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return p.do(ctx, op, func(err error) bool { return errors.Is(err, driven.ErrRateLimited) }, fn)
}

func (p RetryPolicy) do(ctx context.Context, op string, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.MaxElapsedTime = 0

	var last error
	b := backoff.WithContext(
		backoff.WithMaxRetries(retryAfterBackOff{BackOff: expo, last: &last}, uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return backoff.Permanent(last)
		}
		return last
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("remote call failed, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"wait", wait.Round(time.Millisecond),
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if last != nil {
			return last
		}
		return err
	}
	return nil
}
