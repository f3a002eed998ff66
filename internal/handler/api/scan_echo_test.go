package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"SetupScanner/internal/domain/models"
	"SetupScanner/internal/stream"
	"SetupScanner/internal/usecase"
	xhttp "SetupScanner/pkg/http"
	xlogger "SetupScanner/pkg/logger"
)

type stubScanner struct {
	req models.ScanRequest
	err error
}

func (s *stubScanner) Scan(_ context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.ScanResult{ID: "id-1", Symbol: req.Symbol, Timeframe: req.Timeframe, Direction: req.Direction, Matched: true}, nil
}

func (s *stubScanner) QuickScore(p models.PatternRecord) models.OddsScoreResult {
	return models.OddsScoreResult{TotalScore: 9, MaxScore: 12, Grade: "A", Tradeable: true}
}

type stubFeed struct {
	tracked map[string]string
	err     error
}

func (f *stubFeed) Track(_ context.Context, symbol, interval string) error {
	if f.err != nil {
		return f.err
	}
	f.tracked[symbol] = interval
	return nil
}

func (f *stubFeed) Untrack(symbol string) bool {
	_, ok := f.tracked[symbol]
	delete(f.tracked, symbol)
	return ok
}

func (f *stubFeed) Status(symbol string) models.ConnectionState {
	if _, ok := f.tracked[symbol]; ok {
		return models.StateConnecting
	}
	return models.StateDisconnected
}

func (f *stubFeed) Statuses() []models.StreamStatus {
	out := []models.StreamStatus{}
	for s, iv := range f.tracked {
		out = append(out, models.StreamStatus{Symbol: s, Interval: iv, State: models.StateConnecting})
	}
	return out
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(sc *stubScanner, fd *stubFeed) *xhttp.Server {
	h := &ScanEchoHandler{logger: xlogger.Nop(), scanner: sc, feed: fd}
	reg := prometheus.NewRegistry()
	return xhttp.NewServer(h, xlogger.Nop(), xhttp.WithMetrics("/metrics", reg, reg))
}

func do(t *testing.T, srv *xhttp.Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestScanRoute(t *testing.T) {
	sc := &stubScanner{}
	srv := newTestServer(sc, &stubFeed{tracked: map[string]string{}})

	rec, env := do(t, srv, http.MethodPost, "/api/scan", `{"symbol":"BTCUSDT","direction":"bearish"}`)
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if sc.req.Direction != models.Short || sc.req.Timeframe != "1h" || sc.req.Limit != 200 || sc.req.PatternFilter != "all" {
		t.Fatalf("request defaults not applied: %+v", sc.req)
	}
	var res models.ScanResult
	if err := json.Unmarshal(env.Data, &res); err != nil || res.ID != "id-1" {
		t.Fatalf("result = %+v err = %v", res, err)
	}
}

func TestScanRouteValidation(t *testing.T) {
	srv := newTestServer(&stubScanner{}, &stubFeed{tracked: map[string]string{}})

	for _, body := range []string{
		`{"timeframe":"1h"}`,
		`{"symbol":"BTCUSDT","timeframe":"7m"}`,
		`{"symbol":"BTCUSDT","pattern_filter":"flag"}`,
		`{"symbol":"BTCUSDT","limit":5000}`,
		`{"symbol":"BTCUSDT","direction":"sideways"}`,
	} {
		rec, _ := do(t, srv, http.MethodPost, "/api/scan", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}
	}
}

func TestScanRouteErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w BTCUSDT 1h: %w", usecase.ErrCandleFetch, errors.New("timeout")), http.StatusBadGateway},
		{usecase.ErrUnknownPattern, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubScanner{err: tc.err}, &stubFeed{tracked: map[string]string{}})
		rec, _ := do(t, srv, http.MethodPost, "/api/scan", `{"symbol":"BTCUSDT"}`)
		if rec.Code != tc.code {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.code)
		}
	}
}

func TestQuickScoreRoute(t *testing.T) {
	srv := newTestServer(&stubScanner{}, &stubFeed{tracked: map[string]string{}})

	rec, env := do(t, srv, http.MethodPost, "/api/odds/quick", `{"symbol":"ETHUSDT","direction":"LONG","entry":100,"stop":95,"target":115}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var res models.OddsScoreResult
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Grade != "A" {
		t.Fatalf("result = %+v err = %v", res, err)
	}

	rec, _ = do(t, srv, http.MethodPost, "/api/odds/quick", `{"symbol":"ETHUSDT"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing direction: status = %d", rec.Code)
	}
}

func TestStreamRoutes(t *testing.T) {
	fd := &stubFeed{tracked: map[string]string{}}
	srv := newTestServer(&stubScanner{}, fd)

	rec, _ := do(t, srv, http.MethodPost, "/api/streams/btcusdt?interval=5m", "")
	if rec.Code != http.StatusCreated || fd.tracked["BTCUSDT"] != "5m" {
		t.Fatalf("subscribe: status = %d tracked = %v", rec.Code, fd.tracked)
	}

	rec, env := do(t, srv, http.MethodGet, "/api/streams/BTCUSDT", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"connecting"`) {
		t.Fatalf("status route: %d %s", rec.Code, env.Data)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/streams", "")
	var list xhttp.ListDataResponse
	if err := json.Unmarshal(env.Data, &list); err != nil || rec.Code != http.StatusOK || list.Total != 1 {
		t.Fatalf("list: %d %s", rec.Code, env.Data)
	}

	rec, _ = do(t, srv, http.MethodDelete, "/api/streams/btcusdt", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unsubscribe: status = %d", rec.Code)
	}
	rec, _ = do(t, srv, http.MethodDelete, "/api/streams/btcusdt", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second unsubscribe: status = %d", rec.Code)
	}
}

func TestSubscribeErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{stream.ErrInvalidInterval, http.StatusBadRequest},
		{stream.ErrManagerClosed, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubScanner{}, &stubFeed{tracked: map[string]string{}, err: tc.err})
		rec, _ := do(t, srv, http.MethodPost, "/api/streams/BTCUSDT", "")
		if rec.Code != tc.code {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(&stubScanner{}, &stubFeed{tracked: map[string]string{}})
	do(t, srv, http.MethodGet, "/api/streams", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
