package stream

import (
	"time"

	"github.com/benbjohnson/clock"
)

type options struct {
	clock             clock.Clock
	baseDelay         time.Duration
	maxDelay          time.Duration
	maxAttempts       int
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

// Option configures Manager.
type Option func(*options)

func defaultOptions() options {
	return options{
		clock:             clock.New(),
		baseDelay:         DefaultBaseDelay,
		maxDelay:          DefaultMaxDelay,
		maxAttempts:       DefaultMaxAttempts,
		heartbeatInterval: DefaultHeartbeatInterval,
		heartbeatTimeout:  DefaultHeartbeatTimeout,
	}
}

// WithClock sets the time source for timers and heartbeats.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithBackoff sets the reconnect base delay and cap.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(o *options) {
		if base > 0 {
			o.baseDelay = base
		}
		if maxDelay >= base {
			o.maxDelay = maxDelay
		}
	}
}

// WithMaxAttempts sets how many reconnects are tried before the subscription fails.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxAttempts = n
		}
	}
}

// WithHeartbeat sets the liveness check interval and the silence threshold.
func WithHeartbeat(interval, timeout time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.heartbeatInterval = interval
		}
		if timeout > 0 {
			o.heartbeatTimeout = timeout
		}
	}
}
