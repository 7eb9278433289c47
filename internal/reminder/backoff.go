package reminder

import (
	"math"
	"time"
)

// RetryDelay returns base * 2^(attempts-1) capped at max. The delay is added
// to the job's fire_at, so the retry schedule survives restarts.
func RetryDelay(base, max time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := float64(base) * math.Pow(2, float64(attempts-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}
