package database

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	initialRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = 2 * time.Second
)

// waitFor calls try until it reports success, returns an error, or wait
// elapses. A zero wait makes a single attempt. Each unsuccessful attempt
// returns ErrLockNotAcquired.
func waitFor(ctx context.Context, wait time.Duration, try func(context.Context) (bool, error)) error {
	attempt := func() error {
		ok, err := try(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		if !ok {
			return ErrLockNotAcquired
		}

		return nil
	}

	if wait <= 0 {
		return unwrapPermanent(attempt())
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialRetryInterval
	policy.MaxInterval = maxRetryInterval
	policy.MaxElapsedTime = wait

	return unwrapPermanent(backoff.Retry(attempt, backoff.WithContext(policy, ctx)))
}

// retryConnect retries connect up to retries extra times. Invalid URLs are not retried.
func retryConnect[T any](ctx context.Context, retries int, connect func(context.Context) (T, error)) (T, error) {
	var result T

	op := func() error {
		r, err := connect(ctx)
		if err != nil {
			if errors.Is(err, ErrInvalidDatabaseURL) {
				return backoff.Permanent(err)
			}

			return err
		}

		result = r

		return nil
	}

	if retries <= 0 {
		return result, unwrapPermanent(op())
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialRetryInterval * 5 //nolint:mnd // half a second between first attempts
	policy.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))

	return result, unwrapPermanent(err)
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}

	return err
}
