package util

import (
	"fmt"
	"strings"
	"time"
)

// kline intervals accepted by the exchange; "1M" (month) is case sensitive against "1m".
var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour,
}

// IntervalDuration returns the nominal length of a kline interval.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervals[strings.TrimSpace(interval)]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return d, nil
}

// ValidInterval reports whether the interval is a supported kline interval.
func ValidInterval(interval string) bool {
	_, err := IntervalDuration(interval)
	return err == nil
}
