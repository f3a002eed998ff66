// Package scheduler runs periodic watchlist scans on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SetupScanner/internal/domain/models"
	"SetupScanner/pkg/logger"
)

// JobScanWatchlist is the name the watchlist job logs under.
const JobScanWatchlist = "scan_watchlist"

type Scanner interface {
	Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)
}

type Config struct {
	Spec       string
	Symbols    []string
	Interval   string
	Directions []models.Direction
}

// Scheduler scans every watchlist symbol on a cron spec with a seconds field. Overlapping runs are skipped.
type Scheduler struct {
	cfg     Config
	cron    *cron.Cron
	scanner Scanner
	log     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	enabled bool
}

func New(cfg Config, scanner Scanner, log *logger.Logger) *Scheduler {
	if len(cfg.Directions) == 0 {
		cfg.Directions = []models.Direction{models.Long, models.Short}
	}
	if cfg.Interval == "" {
		cfg.Interval = "1h"
	}
	cl := cronLogger{log: log.With(logger.String("component", "scheduler"))}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg: cfg,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		scanner: scanner,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds the watchlist job. An empty spec leaves the scheduler disabled.
func (s *Scheduler) Register() error {
	if s.cfg.Spec == "" {
		s.log.Info("Watchlist scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.ScanWatchlist); err != nil {
		return fmt.Errorf("register %s: %w", JobScanWatchlist, err)
	}
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Scheduler) Start() {
	if !s.Enabled() {
		return
	}
	s.cron.Start()
	s.log.Info("Watchlist scheduler started",
		logger.String("spec", s.cfg.Spec),
		logger.Strings("symbols", s.cfg.Symbols),
	)
}

// Stop halts the schedule and cancels running scans, waiting for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("Watchlist scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScanWatchlist scans each symbol in each direction once.
func (s *Scheduler) ScanWatchlist() {
	start := time.Now()
	scanned, matched, failed := 0, 0, 0
	for _, symbol := range s.cfg.Symbols {
		for _, dir := range s.cfg.Directions {
			if s.ctx.Err() != nil {
				return
			}
			res, err := s.scanner.Scan(s.ctx, models.ScanRequest{
				Symbol:        symbol,
				Timeframe:     s.cfg.Interval,
				Direction:     dir,
				PatternFilter: models.PatternAll,
			})
			if err != nil {
				failed++
				s.log.Warn("Watchlist scan failed",
					logger.String("job", JobScanWatchlist),
					logger.String("symbol", symbol),
					logger.Error(err),
				)
				continue
			}
			scanned++
			if res.Matched {
				matched++
			}
		}
	}
	s.log.Info("Watchlist scan finished",
		logger.String("job", JobScanWatchlist),
		logger.Int("scanned", scanned),
		logger.Int("matched", matched),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(start)),
	)
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kv(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(kv(keysAndValues), logger.Error(err))...)
}

func kv(keysAndValues []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
