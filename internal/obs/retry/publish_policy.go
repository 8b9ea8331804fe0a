package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultPublishPolicy backs the outbox dispatch path. Alert emails are
// never retried; publishing an alert event toward the notifier is.
func DefaultPublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "alert_publish",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("alert publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("alert publish retries exhausted", zap.Error(err))
			}
		},
	}
}
