package util

import "time"

// FromMillis converts exchange millisecond timestamps to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
