package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

// Classifier inspects a failed attempt and decides whether to retry and how
// long to wait first. attempt is zero-based.
type Classifier func(err error, attempt int) (time.Duration, bool)

// Do runs op up to attempts times, sleeping per the classifier between
// failures. Errors the classifier declines to retry propagate immediately.
func Do(ctx context.Context, attempts int, classify Classifier, op func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		delay, retryable := classify(lastErr, i)
		if !retryable || i == attempts-1 {
			if !retryable {
				return lastErr
			}
			break
		}
		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// UpstreamClassifier implements the schedule used against the embedding and
// vector-store services: rate-limit responses back off aggressively with
// jitter, server errors back off gently, anything else is permanent.
func UpstreamClassifier(baseDelay time.Duration) Classifier {
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return func(err error, attempt int) (time.Duration, bool) {
		switch status := appErr.StatusOf(err); {
		case status == 429:
			delay := baseDelay*time.Duration(1<<uint(attempt)) + time.Duration(rand.Int64N(int64(time.Second)))
			return delay, true
		case status >= 500:
			return ScaledBackoff(time.Second, 1.5, attempt), true
		default:
			return 0, false
		}
	}
}

// ScaledBackoff returns base * factor^attempt, capped at one minute.
func ScaledBackoff(base time.Duration, factor float64, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(factor, float64(attempt)))
	if d > time.Minute {
		d = time.Minute
	}
	return d
}

// Sleep waits for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
