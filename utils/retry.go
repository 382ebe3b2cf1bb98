package utils

import (
	"fmt"
	"time"
)

// Retry runs fn up to maxAttempts times, sleeping a jittered delay
// between failures. The delay grows with the attempt number (1-2s,
// 2-4s, 3-6s...) so a rate-limited target gets room to settle. Returns
// the last error once every attempt is exhausted.
func Retry(maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < maxAttempts {
			base := time.Duration(attempt) * time.Second
			wait := RandomDuration(base, 2*base)
			Warn("Attempt %d/%d failed: %v, retrying in %v", attempt, maxAttempts, lastErr, wait)
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", maxAttempts, lastErr)
}
