package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SetupScanner/internal/service/cache"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/metrics"
)

func klineRows(n int, start int64) string {
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		open := 100 + float64(i)
		rows = append(rows, fmt.Sprintf(
			`[%d,"%.2f","%.2f","%.2f","%.2f","%.1f",%d,"0",10,"0","0","0"]`,
			start+int64(i)*60_000, open, open+2, open-1, open+1, 50.0+float64(i), start+int64(i+1)*60_000-1,
		))
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func newTestClient(t *testing.T, url string, c cache.BytesCache, retries int) *KlineClient {
	t.Helper()
	return NewKlineClient(Config{
		RestURL:    url,
		RateLimit:  1000,
		Burst:      1000,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
	}, c, logger.Nop(), metrics.New(prometheus.NewRegistry()))
}

func TestFetchParsesKlines(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(klineRows(3, 1_700_000_000_000)))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, nil, 0)
	candles, err := k.Fetch(context.Background(), "btcusdt", "1m", 3)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("len = %d, want 3", len(candles))
	}
	if !strings.Contains(gotQuery, "symbol=BTCUSDT") || !strings.Contains(gotQuery, "limit=3") || !strings.Contains(gotQuery, "interval=1m") {
		t.Fatalf("query = %q", gotQuery)
	}
	c := candles[2]
	if c.Open != 102 || c.High != 104 || c.Low != 101 || c.Close != 103 || c.Volume != 52 {
		t.Fatalf("candle = %+v", c)
	}
	if !candles[0].Time.Before(candles[1].Time) {
		t.Fatal("candles must be oldest first")
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(klineRows(5, 1_700_000_000_000)))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, cache.NewTTLCache(), 0)
	for i := 0; i < 3; i++ {
		candles, err := k.GetLatestNCandles(context.Background(), "ETHUSDT", "1h", 5)
		if err != nil || len(candles) != 5 {
			t.Fatalf("call %d: %d candles, err %v", i, len(candles), err)
		}
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1", hits)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(klineRows(2, 1_700_000_000_000)))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, nil, 3)
	candles, err := k.Fetch(context.Background(), "BTCUSDT", "5m", 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candles) != 2 || hits != 3 {
		t.Fatalf("candles = %d hits = %d", len(candles), hits)
	}
}

func TestFetchDoesNotRetryRejections(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, nil, 3)
	if _, err := k.Fetch(context.Background(), "NOPE", "1m", 10); err == nil {
		t.Fatal("expected error")
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestFetchEmptyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, nil, 0)
	_, err := k.Fetch(context.Background(), "BTCUSDT", "1m", 10)
	if !errors.Is(err, ErrEmptyKlines) {
		t.Fatalf("err = %v, want ErrEmptyKlines", err)
	}
}

func TestFetchMalformedNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1700000000000,"1.0","x","0.5","1.0","3",1700000059999,"0",1,"0","0","0"]]`))
	}))
	defer srv.Close()

	k := newTestClient(t, srv.URL, nil, 0)
	if _, err := k.Fetch(context.Background(), "BTCUSDT", "1m", 1); err == nil || !strings.Contains(err.Error(), "high") {
		t.Fatalf("err = %v, want malformed high", err)
	}
}

func TestFetchValidatesInput(t *testing.T) {
	k := newTestClient(t, "http://127.0.0.1:1", nil, 0)
	if _, err := k.Fetch(context.Background(), "", "1m", 10); err == nil {
		t.Fatal("empty symbol should fail")
	}
	if _, err := k.Fetch(context.Background(), "BTCUSDT", "2m", 10); err == nil {
		t.Fatal("bad interval should fail")
	}
}
