// Package divergence compares price swings against RSI swings.
package divergence

import (
	"math"

	"SetupScanner/internal/analysis/indicators"
	"SetupScanner/internal/domain/models"
)

// MaxIndexDistance is how far, in candles, an RSI swing may sit from the price swing it pairs with.
const MaxIndexDistance = 5

// ScoringConfig holds the direction-gated divergence scoring table.
type ScoringConfig struct {
	SwingLookback     int     `yaml:"swing_lookback"`
	BaseBonus         int     `yaml:"base_bonus"`
	StrengthThreshold float64 `yaml:"strength_threshold"`
	StrengthBonus     int     `yaml:"strength_bonus"`
	ExtremeHigh       float64 `yaml:"extreme_high"`
	ExtremeLow        float64 `yaml:"extreme_low"`
	ExtremeBonus      int     `yaml:"extreme_bonus"`
	ElevatedHigh      float64 `yaml:"elevated_high"`
	ElevatedLow       float64 `yaml:"elevated_low"`
	ElevatedBonus     int     `yaml:"elevated_bonus"`
	OpposingPenalty   int     `yaml:"opposing_penalty"`
	RSIOnlyBonus      int     `yaml:"rsi_only_bonus"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SwingLookback:     5,
		BaseBonus:         40,
		StrengthThreshold: 5,
		StrengthBonus:     20,
		ExtremeHigh:       70,
		ExtremeLow:        30,
		ExtremeBonus:      20,
		ElevatedHigh:      60,
		ElevatedLow:       40,
		ElevatedBonus:     10,
		OpposingPenalty:   30,
		RSIOnlyBonus:      15,
	}
}

// Assessment is the scored view of divergence for one direction.
type Assessment struct {
	Score      int                      `json:"score"`
	Divergence *models.DivergenceResult `json:"divergence,omitempty"`
	Opposing   *models.DivergenceResult `json:"opposing,omitempty"`
	RSI        float64                  `json:"rsi"`
}

type Detector struct {
	cfg ScoringConfig
}

func New(cfg ScoringConfig) *Detector {
	if cfg.SwingLookback <= 0 {
		cfg.SwingLookback = DefaultScoringConfig().SwingLookback
	}
	return &Detector{cfg: cfg}
}

// Detect returns the divergence that supports direction, or nil.
func (d *Detector) Detect(candles []models.Candle, rsi []models.RSIPoint, dir models.Direction) *models.DivergenceResult {
	switch dir {
	case models.Long:
		return d.DetectBullish(candles, rsi)
	case models.Short:
		return d.DetectBearish(candles, rsi)
	}
	return nil
}

// DetectBearish: price makes a higher high while RSI makes a lower high.
func (d *Detector) DetectBearish(candles []models.Candle, rsi []models.RSIPoint) *models.DivergenceResult {
	price := indicators.FindSwingHighs(candles, d.cfg.SwingLookback, indicators.High)
	osc := indicators.RSISwingHighs(rsi, d.cfg.SwingLookback)
	p1, p2, r1, r2, ok := pair(price, osc)
	if !ok || p2.Value <= p1.Value || r2.Value >= r1.Value {
		return nil
	}
	return result(models.DivergenceBearish, p1, p2, r1, r2)
}

// DetectBullish: price makes a lower low while RSI makes a higher low.
func (d *Detector) DetectBullish(candles []models.Candle, rsi []models.RSIPoint) *models.DivergenceResult {
	price := indicators.FindSwingLows(candles, d.cfg.SwingLookback, indicators.Low)
	osc := indicators.RSISwingLows(rsi, d.cfg.SwingLookback)
	p1, p2, r1, r2, ok := pair(price, osc)
	if !ok || p2.Value >= p1.Value || r2.Value <= r1.Value {
		return nil
	}
	return result(models.DivergenceBullish, p1, p2, r1, r2)
}

// Score applies the scoring table. An opposing divergence subtracts; the result is clamped to [0,100].
func (d *Detector) Score(candles []models.Candle, rsi []models.RSIPoint, dir models.Direction) Assessment {
	var a Assessment
	if !dir.Valid() {
		return a
	}
	last, hasRSI := indicators.LastRSI(rsi)
	a.RSI = last
	a.Divergence = d.Detect(candles, rsi, dir)
	a.Opposing = d.Detect(candles, rsi, dir.Opposite())

	score := 0
	switch {
	case a.Divergence != nil:
		score += d.cfg.BaseBonus
		if a.Divergence.Strength > d.cfg.StrengthThreshold {
			score += d.cfg.StrengthBonus
		}
		if hasRSI {
			score += d.zoneBonus(last, dir)
		}
	case hasRSI && d.extreme(last, dir):
		score += d.cfg.RSIOnlyBonus
	}
	if a.Opposing != nil {
		score -= d.cfg.OpposingPenalty
	}
	a.Score = clamp(score, 0, 100)
	return a
}

func (d *Detector) zoneBonus(rsi float64, dir models.Direction) int {
	if dir == models.Long {
		switch {
		case rsi < d.cfg.ExtremeLow:
			return d.cfg.ExtremeBonus
		case rsi < d.cfg.ElevatedLow:
			return d.cfg.ElevatedBonus
		}
		return 0
	}
	switch {
	case rsi > d.cfg.ExtremeHigh:
		return d.cfg.ExtremeBonus
	case rsi > d.cfg.ElevatedHigh:
		return d.cfg.ElevatedBonus
	}
	return 0
}

func (d *Detector) extreme(rsi float64, dir models.Direction) bool {
	if dir == models.Long {
		return rsi < d.cfg.ExtremeLow
	}
	return rsi > d.cfg.ExtremeHigh
}

// pair takes the last two price swings and the nearest RSI swing to each.
func pair(price, osc []models.SwingPoint) (p1, p2, r1, r2 models.SwingPoint, ok bool) {
	if len(price) < 2 || len(osc) < 2 {
		return
	}
	p1, p2 = price[len(price)-2], price[len(price)-1]
	var ok1, ok2 bool
	r1, ok1 = nearest(osc, p1.Index)
	r2, ok2 = nearest(osc, p2.Index)
	if !ok1 || !ok2 || r1.Index >= r2.Index {
		return p1, p2, r1, r2, false
	}
	return p1, p2, r1, r2, true
}

func nearest(swings []models.SwingPoint, idx int) (models.SwingPoint, bool) {
	best, found, bestDist := models.SwingPoint{}, false, MaxIndexDistance+1
	for _, s := range swings {
		dist := s.Index - idx
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, found, bestDist = s, true, dist
		}
	}
	return best, found
}

func result(t models.DivergenceType, p1, p2, r1, r2 models.SwingPoint) *models.DivergenceResult {
	return &models.DivergenceResult{
		Type:            t,
		PriceLevel1:     p1.Value,
		PriceLevel2:     p2.Value,
		IndicatorLevel1: r1.Value,
		IndicatorLevel2: r2.Value,
		Strength:        math.Min(pctChange(p1.Value, p2.Value), pctChange(r1.Value, r2.Value)),
		PriceIndex1:     p1.Index,
		PriceIndex2:     p2.Index,
	}
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return math.Abs((to - from) / from * 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
