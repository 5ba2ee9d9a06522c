package analysis

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sleep is replaced in tests.
var sleep = time.Sleep

const (
	summaryAttempts = 3
	retryBackoff    = 2 * time.Second
)

// withRetry runs fn up to attempts times with a fixed backoff between
// tries. The returned error carries the last failure and the attempt
// count.
func withRetry(logger *zap.Logger, op string, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warn("attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		if attempt < attempts {
			sleep(backoff)
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
