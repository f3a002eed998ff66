package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"SetupScanner/internal/domain/models"
)

func f64p(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }
func boolp(v bool) *bool      { return &v }

func TestScanNormalizesRequest(t *testing.T) {
	src := &fakeSource{candles: quietSeries(300)}
	s := newTestScanner(src, nil, newFakeMetrics())

	res, err := s.Scan(context.Background(), models.ScanRequest{Symbol: " btcusdt "})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(src.calls) != 1 || src.calls[0] != "BTCUSDT/1h/200" {
		t.Fatalf("calls = %v", src.calls)
	}
	if res.Symbol != "BTCUSDT" || res.Direction != models.Long || res.PatternFilter != models.PatternAll {
		t.Fatalf("unexpected result header: %+v", res)
	}
	if res.Candles != 200 || res.ID == "" {
		t.Fatalf("candles = %d id = %q", res.Candles, res.ID)
	}
}

func TestScanRejectsBadRequest(t *testing.T) {
	s := newTestScanner(&fakeSource{}, nil, newFakeMetrics())
	ctx := context.Background()

	if _, err := s.Scan(ctx, models.ScanRequest{Symbol: "BTCUSDT", PatternFilter: "wedge"}); !errors.Is(err, ErrUnknownPattern) {
		t.Fatalf("err = %v, want ErrUnknownPattern", err)
	}
	if _, err := s.Scan(ctx, models.ScanRequest{Symbol: "BTCUSDT", Direction: "UP"}); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("err = %v, want ErrInvalidDirection", err)
	}
	if _, err := s.Scan(ctx, models.ScanRequest{Symbol: "BTCUSDT", Timeframe: "7m"}); err == nil {
		t.Fatal("expected timeframe error")
	}
	if _, err := s.Scan(ctx, models.ScanRequest{}); err == nil {
		t.Fatal("expected symbol error")
	}
}

func TestScanFetchError(t *testing.T) {
	m := newFakeMetrics()
	boom := errors.New("boom")
	s := newTestScanner(&fakeSource{err: boom}, nil, m)

	if _, err := s.Scan(context.Background(), models.ScanRequest{Symbol: "ETHUSDT"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if m.errorCount("fetch_candles") != 1 {
		t.Fatal("fetch error not recorded")
	}
}

func TestScanCandlesConfirmationFilter(t *testing.T) {
	pub := &fakePublisher{}
	m := newFakeMetrics()
	s := newTestScanner(&fakeSource{}, pub, m)

	req := models.ScanRequest{Symbol: "BTCUSDT", PatternFilter: models.PatternConfirmation, Direction: models.Long}
	res, err := s.ScanCandles(context.Background(), req, hammerSeries(60))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !res.Matched || !res.Confirmation.HasConfirmation {
		t.Fatalf("expected confirmation match: %+v", res.Confirmation)
	}
	if res.RSI == nil || *res.RSI < 0 || *res.RSI > 100 {
		t.Fatalf("rsi = %v", res.RSI)
	}
	if res.LastClose != 11 {
		t.Fatalf("last close = %v", res.LastClose)
	}
	if res.Odds != nil {
		t.Fatal("odds produced without zone")
	}
	if got := pub.published(); len(got) != 1 || got[0] != res {
		t.Fatalf("published %d results", len(got))
	}
	if m.scans["BTCUSDT/none"] != 1 {
		t.Fatalf("scan metric = %v", m.scans)
	}
}

func TestScanCandlesUnmatchedStillPublished(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestScanner(&fakeSource{}, pub, newFakeMetrics())

	req := models.ScanRequest{Symbol: "BTCUSDT", PatternFilter: models.PatternConfirmation}
	res, err := s.ScanCandles(context.Background(), req, quietSeries(60))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Matched {
		t.Fatalf("quiet series should not match: %+v", res.Confirmation)
	}
	if len(pub.published()) != 1 {
		t.Fatal("result not published")
	}
}

func TestScanCandlesDivergenceFilterFollowsDetector(t *testing.T) {
	s := newTestScanner(&fakeSource{}, nil, newFakeMetrics())

	for _, dir := range []models.Direction{models.Long, models.Short} {
		req := models.ScanRequest{Symbol: "BTCUSDT", PatternFilter: models.PatternDivergence, Direction: dir}
		res, err := s.ScanCandles(context.Background(), req, hammerSeries(80))
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if res.Matched != (res.Divergence != nil) {
			t.Fatalf("%s: matched = %v with divergence %+v", dir, res.Matched, res.Divergence)
		}
		if res.DivergenceScore < 0 || res.DivergenceScore > 100 {
			t.Fatalf("divergence score out of range: %d", res.DivergenceScore)
		}
	}
}

func TestScanCandlesScoresZone(t *testing.T) {
	m := newFakeMetrics()
	s := newTestScanner(&fakeSource{}, nil, m)

	zone := &models.ZoneData{
		DepartureRatio: f64p(2.5),
		CandlesAtLevel: intp(2),
		TestCount:      intp(0),
		ProfitMarginR:  f64p(3.5),
		TrendAligned:   boolp(true),
		IsOrigin:       boolp(true),
		ArrivalRatio:   f64p(2),
		RiskReward:     f64p(4),
	}
	req := models.ScanRequest{Symbol: "SOLUSDT", Direction: models.Long, Zone: zone}
	res, err := s.ScanCandles(context.Background(), req, quietSeries(40))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Odds == nil {
		t.Fatal("expected odds result")
	}
	if res.Odds.TotalScore != 12 || res.Odds.MaxScore != 12 || res.Odds.Grade != "A+" || !res.Odds.Tradeable {
		t.Fatalf("odds = %+v", res.Odds)
	}
	if m.scans["SOLUSDT/A+"] != 1 {
		t.Fatalf("scan metric = %v", m.scans)
	}
}

func TestScanCandlesInsufficientData(t *testing.T) {
	s := newTestScanner(&fakeSource{}, nil, newFakeMetrics())

	res, err := s.ScanCandles(context.Background(), models.ScanRequest{Symbol: "BTCUSDT"}, quietSeries(5))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.RSI != nil || res.Divergence != nil || res.DivergenceScore != 0 {
		t.Fatalf("expected no indicator output: %+v", res)
	}
	if len(res.Notes) == 0 || !strings.Contains(res.Notes[0], "RSI") {
		t.Fatalf("notes = %v", res.Notes)
	}

	empty, err := s.ScanCandles(context.Background(), models.ScanRequest{Symbol: "BTCUSDT"}, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if empty.Matched || empty.Candles != 0 || len(empty.Notes) != 1 {
		t.Fatalf("empty result = %+v", empty)
	}
}

func TestScanPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	m := newFakeMetrics()
	s := newTestScanner(&fakeSource{}, pub, m)

	if _, err := s.ScanCandles(context.Background(), models.ScanRequest{Symbol: "BTCUSDT"}, quietSeries(30)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if m.errorCount("publish_result") != 1 {
		t.Fatal("publish failure not recorded")
	}
}
