package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"SetupScanner/internal/analysis/candles"
	"SetupScanner/internal/analysis/divergence"
	"SetupScanner/internal/analysis/indicators"
	"SetupScanner/internal/analysis/odds"
	"SetupScanner/internal/domain/models"
	domrepo "SetupScanner/internal/domain/repository"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/util"
)

var (
	ErrInvalidRequest   = errors.New("invalid scan request")
	ErrUnknownPattern   = fmt.Errorf("%w: unknown pattern filter", ErrInvalidRequest)
	ErrInvalidDirection = fmt.Errorf("%w: direction must be LONG or SHORT", ErrInvalidRequest)
	ErrCandleFetch      = errors.New("fetch candles")
)

// ScannerConfig holds scan defaults.
type ScannerConfig struct {
	RSIPeriod    int
	DefaultLimit int
}

// Scanner runs the indicator, divergence, confirmation and odds stages over one candle series.
type Scanner struct {
	cfg       ScannerConfig
	source    domrepo.CandleSource
	detector  *divergence.Detector
	analyzer  *candles.Analyzer
	engine    *odds.Engine
	publisher domrepo.ResultPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewScanner wires the stages. publisher may be nil, in which case results are only returned.
func NewScanner(
	cfg ScannerConfig,
	source domrepo.CandleSource,
	detector *divergence.Detector,
	analyzer *candles.Analyzer,
	engine *odds.Engine,
	publisher domrepo.ResultPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Scanner {
	if cfg.RSIPeriod < 2 {
		cfg.RSIPeriod = indicators.DefaultRSIPeriod
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 200
	}
	return &Scanner{
		cfg:       cfg,
		source:    source,
		detector:  detector,
		analyzer:  analyzer,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// QuickScore scores a sparse pattern record with the scanner's odds engine.
func (s *Scanner) QuickScore(p models.PatternRecord) models.OddsScoreResult {
	p.Symbol = util.NormalizeSymbol(p.Symbol)
	res := s.engine.QuickScore(p)
	s.metrics.RecordScan(p.Symbol, res.Grade)
	return res
}

// Scan fetches the latest candles for the request and scans them.
func (s *Scanner) Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	series, err := s.source.GetLatestNCandles(ctx, req.Symbol, req.Timeframe, req.Limit)
	s.metrics.RecordLatency("fetch_candles", time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordError("fetch_candles")
		return nil, fmt.Errorf("%w %s %s: %w", ErrCandleFetch, req.Symbol, req.Timeframe, err)
	}
	return s.scan(ctx, req, series), nil
}

// ScanCandles scans a caller-supplied series, oldest first.
func (s *Scanner) ScanCandles(ctx context.Context, req models.ScanRequest, series []models.Candle) (*models.ScanResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, req, series), nil
}

func (s *Scanner) normalize(req models.ScanRequest) (models.ScanRequest, error) {
	req.Symbol = util.NormalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		return req, fmt.Errorf("%w: symbol required", ErrInvalidRequest)
	}
	req.Timeframe = strings.TrimSpace(req.Timeframe)
	if req.Timeframe == "" {
		req.Timeframe = "1h"
	}
	if !util.ValidInterval(req.Timeframe) {
		return req, fmt.Errorf("%w: unsupported timeframe %q", ErrInvalidRequest, req.Timeframe)
	}
	switch req.PatternFilter {
	case "":
		req.PatternFilter = models.PatternAll
	case models.PatternAll, models.PatternDivergence, models.PatternConfirmation:
	default:
		return req, fmt.Errorf("%w: %q", ErrUnknownPattern, req.PatternFilter)
	}
	if req.Direction == "" {
		req.Direction = models.Long
	}
	if !req.Direction.Valid() {
		return req, ErrInvalidDirection
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.DefaultLimit
	}
	return req, nil
}

func (s *Scanner) scan(ctx context.Context, req models.ScanRequest, series []models.Candle) *models.ScanResult {
	start := time.Now()
	res := &models.ScanResult{
		ID:            uuid.NewString(),
		Symbol:        req.Symbol,
		Timeframe:     req.Timeframe,
		Direction:     req.Direction,
		PatternFilter: req.PatternFilter,
		ScannedAt:     s.now().UTC(),
		Candles:       len(series),
	}
	if len(series) == 0 {
		res.Notes = append(res.Notes, "no candles available")
		s.finish(ctx, res, start)
		return res
	}
	res.LastClose = series[len(series)-1].Close

	rsi := indicators.CalculateRSI(series, s.cfg.RSIPeriod)
	last, hasRSI := indicators.LastRSI(rsi)
	if hasRSI {
		res.RSI = &last
	} else {
		res.Notes = append(res.Notes, fmt.Sprintf("need more than %d candles for RSI", s.cfg.RSIPeriod))
	}

	a := s.detector.Score(series, rsi, req.Direction)
	res.Divergence = a.Divergence
	res.DivergenceScore = a.Score
	if a.Opposing != nil {
		res.Notes = append(res.Notes, fmt.Sprintf("opposing %s divergence present", a.Opposing.Type))
	}

	res.Confirmation = s.analyzer.CheckConfirmation(series, req.Direction)

	if req.Zone != nil {
		zone := *req.Zone
		if zone.Direction == "" {
			zone.Direction = req.Direction
		}
		market := models.MarketData{
			Symbol:    req.Symbol,
			Timeframe: req.Timeframe,
			Price:     res.LastClose,
		}
		if hasRSI {
			market.RSI = last
		}
		score := s.engine.Calculate(zone, market)
		res.Odds = &score
	}

	switch req.PatternFilter {
	case models.PatternDivergence:
		res.Matched = res.Divergence != nil
	case models.PatternConfirmation:
		res.Matched = res.Confirmation.HasConfirmation
	default:
		res.Matched = res.Divergence != nil || res.Confirmation.HasConfirmation
	}

	s.finish(ctx, res, start)
	return res
}

func (s *Scanner) finish(ctx context.Context, res *models.ScanResult, start time.Time) {
	grade := "none"
	if res.Odds != nil {
		grade = res.Odds.Grade
	}
	s.metrics.RecordScan(res.Symbol, grade)
	s.metrics.RecordLatency("scan", time.Since(start).Seconds())

	s.log.Debug("Scan completed",
		logger.String("symbol", res.Symbol),
		logger.String("timeframe", res.Timeframe),
		logger.String("direction", string(res.Direction)),
		logger.Bool("matched", res.Matched),
		logger.Float64("last_close", res.LastClose),
		logger.Int("divergence_score", res.DivergenceScore),
		logger.Int("confirmation_score", res.Confirmation.Score),
	)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, res); err != nil {
		s.metrics.RecordError("publish_result")
		s.log.Warn("Publishing scan result failed", logger.String("symbol", res.Symbol), logger.Error(err))
	}
}
