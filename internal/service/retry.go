package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/domain"
)

// RetryPolicy controls retry behaviour for calls to the persistence service.
// SERVER-class failures are retried with exponential backoff (base, 2x, 4x,
// ...), AUTH-class failures get one session refresh followed by one retry,
// and NETWORK/UNKNOWN failures surface immediately so callers can degrade to
// fallback data.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	Refresher   domain.SessionRefresher
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 1s backoff
// base (delays 1s, 2s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
	}
}

// ExecuteWithRetry runs op under the policy. It is shared by every
// store-communication call site so classification and backoff live in one
// place.
func ExecuteWithRetry[T any](ctx context.Context, policy RetryPolicy, log *logrus.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	refreshed := false
	delay := policy.BackoffBase

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		kind := domain.ClassifyStoreError(err)
		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"kind":    string(kind),
		}).WithError(err).Warn("Store call failed")

		switch kind {
		case domain.StoreErrAuth:
			if policy.Refresher == nil || refreshed {
				return zero, lastErr
			}
			refreshed = true
			if refreshErr := policy.Refresher.Refresh(ctx); refreshErr != nil {
				log.WithError(refreshErr).Error("Session refresh failed")
				return zero, lastErr
			}
			// One immediate retry with the fresh session, no backoff. The
			// retry does not consume the attempt budget, so it happens even
			// when the auth failure lands on the final attempt.
			attempt--
			continue
		case domain.StoreErrServer:
			// Retried with backoff below.
		default:
			// NETWORK/UNKNOWN: degrade immediately.
			return zero, lastErr
		}

		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return zero, lastErr
}
