package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"SetupScanner/internal/domain/models"
	domrepo "SetupScanner/internal/domain/repository"
	"SetupScanner/internal/stream"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/util"
)

// StreamManager is the slice of stream.Manager the live feed drives.
type StreamManager interface {
	Subscribe(symbol, interval string, l stream.Listener) (*stream.Handle, error)
	Unsubscribe(symbol string)
	GetConnectionStatus(symbol string) models.ConnectionState
	Statuses() []models.StreamStatus
}

type LiveFeedConfig struct {
	Interval   string
	History    int
	Directions []models.Direction
}

// LiveFeed keeps a bounded candle buffer per watched symbol and scans every closed candle.
type LiveFeed struct {
	cfg     LiveFeedConfig
	streams StreamManager
	source  domrepo.CandleSource
	scanner *Scanner
	metrics domrepo.Metrics
	log     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	buffers map[string]*candleBuffer
}

func NewLiveFeed(cfg LiveFeedConfig, streams StreamManager, source domrepo.CandleSource, scanner *Scanner, metrics domrepo.Metrics, log *logger.Logger) *LiveFeed {
	if cfg.Interval == "" {
		cfg.Interval = "1m"
	}
	if cfg.History <= 0 {
		cfg.History = 200
	}
	if len(cfg.Directions) == 0 {
		cfg.Directions = []models.Direction{models.Long, models.Short}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LiveFeed{
		cfg:     cfg,
		streams: streams,
		source:  source,
		scanner: scanner,
		metrics: metrics,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		buffers: make(map[string]*candleBuffer),
	}
}

// Start tracks every symbol on the default interval. A failing symbol does not stop the others.
func (f *LiveFeed) Start(ctx context.Context, symbols []string) error {
	var errs []error
	for _, s := range symbols {
		if err := f.Track(ctx, s, ""); err != nil {
			errs = append(errs, fmt.Errorf("track %s: %w", s, err))
		}
	}
	f.log.Info("Live feed started", logger.Int("symbols", len(symbols)), logger.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Track seeds the symbol's buffer from history and subscribes to its stream. An empty interval
// uses the feed default. Tracking an already tracked symbol replaces its subscription.
func (f *LiveFeed) Track(ctx context.Context, symbol, interval string) error {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return stream.ErrInvalidSymbol
	}
	if interval == "" {
		interval = f.cfg.Interval
	}
	if !util.ValidInterval(interval) {
		return fmt.Errorf("%w: %q", stream.ErrInvalidInterval, interval)
	}

	seed, err := f.source.GetLatestNCandles(ctx, symbol, interval, f.cfg.History)
	if err != nil {
		f.metrics.RecordError("seed_history")
		f.log.Warn("Seeding candle history failed, starting empty",
			logger.String("symbol", symbol),
			logger.String("interval", interval),
			logger.Error(err),
		)
		seed = nil
	}
	buf := newCandleBuffer(f.cfg.History, seed)

	f.mu.Lock()
	f.buffers[symbol] = buf
	f.mu.Unlock()

	l := &feedListener{feed: f, buf: buf, interval: interval}
	if _, err := f.streams.Subscribe(symbol, interval, l); err != nil {
		f.mu.Lock()
		if f.buffers[symbol] == buf {
			delete(f.buffers, symbol)
		}
		f.mu.Unlock()
		return err
	}
	f.log.Info("Tracking symbol",
		logger.String("symbol", symbol),
		logger.String("interval", interval),
		logger.Int("seeded", len(seed)),
	)
	return nil
}

// Untrack stops the symbol's stream and drops its buffer.
func (f *LiveFeed) Untrack(symbol string) bool {
	symbol = util.NormalizeSymbol(symbol)
	f.mu.Lock()
	_, ok := f.buffers[symbol]
	delete(f.buffers, symbol)
	f.mu.Unlock()

	f.streams.Unsubscribe(symbol)
	return ok
}

// Candles returns a copy of the symbol's buffer, oldest first.
func (f *LiveFeed) Candles(symbol string) []models.Candle {
	f.mu.Lock()
	buf := f.buffers[util.NormalizeSymbol(symbol)]
	f.mu.Unlock()
	if buf == nil {
		return nil
	}
	return buf.snapshot()
}

func (f *LiveFeed) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.buffers))
	for s := range f.buffers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (f *LiveFeed) Status(symbol string) models.ConnectionState {
	return f.streams.GetConnectionStatus(symbol)
}

func (f *LiveFeed) Statuses() []models.StreamStatus {
	return f.streams.Statuses()
}

// Stop cancels in-flight scans and unsubscribes every tracked symbol.
func (f *LiveFeed) Stop() {
	f.cancel()
	for _, s := range f.Symbols() {
		f.Untrack(s)
	}
	f.log.Info("Live feed stopped")
}

func (f *LiveFeed) scanClosed(symbol, interval string, series []models.Candle) {
	for _, dir := range f.cfg.Directions {
		req := models.ScanRequest{
			Symbol:        symbol,
			Timeframe:     interval,
			Direction:     dir,
			PatternFilter: models.PatternAll,
			Limit:         len(series),
		}
		res, err := f.scanner.ScanCandles(f.ctx, req, series)
		if err != nil {
			f.log.Error("Live scan failed", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if res.Matched {
			f.log.Info("Setup detected",
				logger.String("symbol", symbol),
				logger.String("interval", interval),
				logger.String("direction", string(dir)),
				logger.Int("divergence_score", res.DivergenceScore),
				logger.Int("confirmation_score", res.Confirmation.Score),
				logger.Strings("signals", res.Confirmation.Signals),
			)
		}
	}
}

type feedListener struct {
	feed     *LiveFeed
	buf      *candleBuffer
	interval string
}

func (l *feedListener) OnUpdate(symbol string, c models.Candle, closed bool) {
	l.feed.metrics.RecordLastPrice(symbol, c.Close)
	if !l.buf.apply(c) {
		l.feed.log.Debug("Dropping stale candle", logger.String("symbol", symbol), logger.Any("time", c.Time))
		return
	}
	if closed {
		l.feed.scanClosed(symbol, l.interval, l.buf.snapshot())
	}
}

func (l *feedListener) OnStateChange(symbol string, state models.ConnectionState) {
	l.feed.log.Info("Stream state changed", logger.String("symbol", symbol), logger.String("state", string(state)))
}

// candleBuffer holds at most limit candles. The newest candle is replaced in place while it is open.
type candleBuffer struct {
	mu      sync.Mutex
	limit   int
	candles []models.Candle
}

func newCandleBuffer(limit int, seed []models.Candle) *candleBuffer {
	b := &candleBuffer{limit: limit, candles: make([]models.Candle, 0, limit)}
	for _, c := range seed {
		b.apply(c)
	}
	return b
}

// apply replaces the newest candle when c has the same open time, appends when it is newer and
// reports false for anything older.
func (b *candleBuffer) apply(c models.Candle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.candles); n > 0 {
		last := b.candles[n-1].Time
		switch {
		case c.Time.Equal(last):
			b.candles[n-1] = c
			return true
		case c.Time.Before(last):
			return false
		}
	}
	b.candles = append(b.candles, c)
	if len(b.candles) > b.limit {
		b.candles = append(b.candles[:0], b.candles[len(b.candles)-b.limit:]...)
	}
	return true
}

func (b *candleBuffer) snapshot() []models.Candle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Candle(nil), b.candles...)
}
