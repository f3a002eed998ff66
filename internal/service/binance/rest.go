package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"golang.org/x/time/rate"

	"SetupScanner/internal/domain/models"
	"SetupScanner/internal/domain/repository"
	"SetupScanner/internal/service/cache"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/util"
)

// MaxKlineLimit is the largest page the klines endpoint serves.
const MaxKlineLimit = 1000

var ErrEmptyKlines = errors.New("binance returned no klines")

type Config struct {
	RestURL    string
	APIKey     string
	SecretKey  string
	RateLimit  float64 // requests per second
	Burst      int
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	Timeout    time.Duration
}

// KlineClient fetches historical candles from the spot klines endpoint.
type KlineClient struct {
	client      *gobinance.Client
	rateLimiter *rate.Limiter
	cache       cache.BytesCache
	cfg         Config
	log         *logger.Logger
	metrics     repository.Metrics
}

// NewKlineClient builds the client. c may be nil to disable response caching.
func NewKlineClient(cfg Config, c cache.BytesCache, log *logger.Logger, metrics repository.Metrics) *KlineClient {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := gobinance.NewClient(cfg.APIKey, cfg.SecretKey)
	client.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	if cfg.RestURL != "" {
		client.BaseURL = cfg.RestURL
	}

	return &KlineClient{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		cache:       c,
		cfg:         cfg,
		log:         log,
		metrics:     metrics,
	}
}

// GetLatestNCandles implements repository.CandleSource.
func (k *KlineClient) GetLatestNCandles(ctx context.Context, symbol, interval string, n int) ([]models.Candle, error) {
	return k.Fetch(ctx, symbol, interval, n)
}

// Fetch returns up to limit candles, oldest first. The last one may still be forming.
func (k *KlineClient) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("fetch klines: empty symbol")
	}
	if !util.ValidInterval(interval) {
		return nil, fmt.Errorf("fetch klines: unsupported interval %q", interval)
	}
	limit = max(1, min(limit, MaxKlineLimit))

	key := fmt.Sprintf("klines:%s:%s:%d", symbol, interval, limit)
	if candles, ok := k.fromCache(ctx, key); ok {
		return candles, nil
	}

	start := time.Now()
	klines, err := k.getKlines(ctx, symbol, interval, limit)
	k.metrics.RecordLatency("binance_klines", time.Since(start).Seconds())
	if err != nil {
		k.metrics.RecordError("binance_rest")
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	candles, err := toCandles(klines)
	if err != nil {
		k.metrics.RecordError("binance_parse")
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	k.toCache(ctx, key, candles)
	return candles, nil
}

func (k *KlineClient) getKlines(ctx context.Context, symbol, interval string, limit int) ([]*gobinance.Kline, error) {
	var lastErr error
	for attempt := 0; attempt <= k.cfg.MaxRetries; attempt++ {
		if err := k.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := k.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err == nil && len(klines) == 0 {
			err = ErrEmptyKlines
		}
		if err == nil {
			return klines, nil
		}
		lastErr = err

		// Exchange-coded rejections (bad symbol, bad interval) will not succeed on retry.
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code != 0 {
			return nil, err
		}
		if attempt == k.cfg.MaxRetries {
			break
		}

		wait := k.cfg.RetryDelay << attempt
		k.log.Warn("Klines request failed, retrying",
			logger.String("symbol", symbol),
			logger.Int("attempt", attempt+1),
			logger.Duration("wait_ms", wait),
			logger.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (k *KlineClient) fromCache(ctx context.Context, key string) ([]models.Candle, bool) {
	if k.cache == nil || k.cfg.CacheTTL <= 0 {
		return nil, false
	}
	b, ok, err := k.cache.GetBytes(ctx, key)
	if err != nil {
		k.log.Warn("Kline cache read failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var candles []models.Candle
	if err := json.Unmarshal(b, &candles); err != nil || len(candles) == 0 {
		return nil, false
	}
	return candles, true
}

func (k *KlineClient) toCache(ctx context.Context, key string, candles []models.Candle) {
	if k.cache == nil || k.cfg.CacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(candles)
	if err != nil {
		return
	}
	if err := k.cache.SetBytes(ctx, key, b, k.cfg.CacheTTL); err != nil {
		k.log.Warn("Kline cache write failed", logger.String("key", key), logger.Error(err))
	}
}

func toCandles(klines []*gobinance.Kline) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(klines))
	for i, kl := range klines {
		c, err := parseOHLCV(kl.OpenTime, kl.Open, kl.High, kl.Low, kl.Close, kl.Volume)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseOHLCV(openTime int64, open, high, low, closePrice, volume string) (models.Candle, error) {
	var (
		c   = models.Candle{Time: util.FromMillis(openTime)}
		err error
	)
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", open, &c.Open},
		{"high", high, &c.High},
		{"low", low, &c.Low},
		{"close", closePrice, &c.Close},
		{"volume", volume, &c.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = util.ParseFloat(f.raw); err != nil {
			return models.Candle{}, fmt.Errorf("malformed %s %q: %w", f.name, f.raw, err)
		}
	}
	return c, nil
}
