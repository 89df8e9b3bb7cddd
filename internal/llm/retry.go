package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the shared retry policy applied to every provider
// call. One policy serves all clients — per-provider copies of this logic
// drift apart, so it lives here once.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig is used when configuration leaves retries unset.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// withRetry runs op with bounded exponential backoff and jitter.
// Permanent failures (auth, 4xx, parse, poll exhaustion) stop immediately;
// transient ones (network, 429, 5xx) are retried up to MaxAttempts total.
func withRetry(ctx context.Context, cfg RetryConfig, op func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped,
		backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(cfg.MaxAttempts-1)))
}
