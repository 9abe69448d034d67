// Package util provides small shared helpers used across the adapter
// packages, the same role it plays in the teacher.
package util

import (
	"math"
	"time"
)

// DispatchBackoff computes the per-attempt backoff the dispatcher sleeps
// between retries: min(2^attempt * baseDelay, maxDelay), per §4.E.
func DispatchBackoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
	if backoff > float64(maxDelay) {
		backoff = float64(maxDelay)
	}
	return time.Duration(backoff)
}
