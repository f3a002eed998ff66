package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SetupScanner/internal/analysis/candles"
	"SetupScanner/internal/analysis/divergence"
	"SetupScanner/internal/analysis/odds"
	"SetupScanner/internal/domain/models"
	"SetupScanner/pkg/logger"
)

type fakeSource struct {
	mu      sync.Mutex
	candles []models.Candle
	err     error
	calls   []string
}

func (f *fakeSource) GetLatestNCandles(_ context.Context, symbol, interval string, n int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s/%s/%d", symbol, interval, n))
	if f.err != nil {
		return nil, f.err
	}
	out := f.candles
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return append([]models.Candle(nil), out...), nil
}

type fakePublisher struct {
	mu      sync.Mutex
	results []*models.ScanResult
	err     error
}

func (f *fakePublisher) PublishResult(_ context.Context, r *models.ScanResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []*models.ScanResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.ScanResult(nil), f.results...)
}

type fakeMetrics struct {
	mu     sync.Mutex
	scans  map[string]int
	errors map[string]int
	prices map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{scans: map[string]int{}, errors: map[string]int{}, prices: map[string]float64{}}
}

func (m *fakeMetrics) RecordStreamMessage(string)                       {}
func (m *fakeMetrics) RecordStateChange(string, models.ConnectionState) {}
func (m *fakeMetrics) RecordReconnect(string)                           {}
func (m *fakeMetrics) RecordLatency(string, float64)                    {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

func (m *fakeMetrics) RecordScan(symbol, grade string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans[symbol+"/"+grade]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func newTestScanner(src *fakeSource, pub *fakePublisher, m *fakeMetrics) *Scanner {
	engine, err := odds.NewFromConfig(odds.DefaultConfig())
	if err != nil {
		panic(err)
	}
	s := NewScanner(
		ScannerConfig{RSIPeriod: 14, DefaultLimit: 200},
		src,
		divergence.New(divergence.DefaultScoringConfig()),
		candles.NewAnalyzer(candles.DefaultConfig()),
		engine,
		nil,
		m,
		logger.Nop(),
	)
	if pub != nil {
		s.publisher = pub
	}
	return s
}

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// quietSeries oscillates gently and ends on a small bullish candle that does not confirm.
func quietSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		cl := 10 + 0.1*float64(i%3)
		out[i] = models.Candle{Time: t0.Add(time.Duration(i) * time.Hour), Open: cl - 0.05, High: cl + 0.1, Low: cl - 0.1, Close: cl, Volume: 100}
	}
	if n > 0 {
		out[n-1] = models.Candle{Time: t0.Add(time.Duration(n-1) * time.Hour), Open: 10, High: 10.3, Low: 9.9, Close: 10.2, Volume: 100}
	}
	return out
}

// hammerSeries is quietSeries ending on a hammer.
func hammerSeries(n int) []models.Candle {
	out := quietSeries(n)
	out[n-1] = models.Candle{Time: out[n-1].Time, Open: 10, High: 11.2, Low: 7, Close: 11, Volume: 100}
	return out
}
