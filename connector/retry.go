package connector

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetries = 3

func newBackoff(ctx context.Context, cfg *RetryConfig) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if cfg.BaseDelay > 0 {
		exp.InitialInterval = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		exp.MaxInterval = cfg.MaxDelay
	}
	if cfg.Multiplier > 0 {
		exp.Multiplier = cfg.Multiplier
	}
	exp.MaxElapsedTime = 0

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}

// retryConnect calls connectFn until it succeeds, the retries run out or
// the error is a config error, which is never retried.
func retryConnect(ctx context.Context, cfg *RetryConfig, connectFn func(context.Context) (Connection, error)) (Connection, error) {
	return backoff.RetryWithData(func() (Connection, error) {
		conn, err := connectFn(ctx)
		if errors.Is(err, ErrInvalidConfig) {
			return nil, backoff.Permanent(err)
		}
		return conn, err
	}, newBackoff(ctx, cfg))
}
