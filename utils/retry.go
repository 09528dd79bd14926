package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *Logger
}

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do executes fn with exponential back-off retry logic. It stops early on
// context cancellation or on an error wrapped with Permanent.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.BaseDelay
	b.MaxElapsedTime = 0

	retries := r.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			return fn()
		},
		policy,
		func(err error, delay time.Duration) {
			if r.Logger != nil {
				r.Logger.Warn("retrying",
					"operation", operationName,
					"attempt", attempt,
					"max_attempts", retries+1,
					"delay", delay,
					"error", err)
			}
		},
	)
	if err != nil && attempt > 1 {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
	}
	return err
}
