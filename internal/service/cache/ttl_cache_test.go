package cache

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	c := NewTTLCacheWithClock(mock)

	if err := c.SetBytes(ctx, "klines:BTCUSDT:1h:200", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	b, ok, err := c.GetBytes(ctx, "klines:BTCUSDT:1h:200")
	if err != nil || !ok || string(b) != "payload" {
		t.Fatalf("GetBytes = %q %v %v", b, ok, err)
	}

	mock.Add(time.Minute + time.Second)
	if _, ok, _ := c.GetBytes(ctx, "klines:BTCUSDT:1h:200"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestTTLCacheNoExpiry(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	c := NewTTLCacheWithClock(mock)

	_ = c.SetBytes(ctx, "k", []byte("v"), 0)
	mock.Add(24 * time.Hour)
	if _, ok, _ := c.GetBytes(ctx, "k"); !ok {
		t.Fatal("zero ttl should not expire")
	}
	if _, ok, _ := c.GetBytes(ctx, "missing"); ok {
		t.Fatal("missing key reported present")
	}
}

var _ BytesCache = (*TTLCache)(nil)
var _ BytesCache = (*RedisCache)(nil)
