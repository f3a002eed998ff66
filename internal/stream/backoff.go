package stream

import "time"

const (
	DefaultBaseDelay         = 1000 * time.Millisecond
	DefaultMaxDelay          = 16000 * time.Millisecond
	DefaultMaxAttempts       = 10
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultHeartbeatTimeout  = 120 * time.Second
)

// Backoff is base doubled per attempt, capped at max. attempt is zero-based.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return min(d, maxDelay)
}
