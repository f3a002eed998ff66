package odds

import "SetupScanner/internal/domain/models"

// Factor scores one quality dimension of a zone. Scores outside [0, Max] are clamped by the engine.
type Factor interface {
	Name() string
	Max() int
	Score(zone models.ZoneData, market models.MarketData) int
}

// InputFunc extracts the numeric input of a factor; ok=false means the input is unknown.
type InputFunc func(zone models.ZoneData, market models.MarketData) (v float64, ok bool)

// Bucket awards Points when Min <= v <= Max. Nil bounds are open.
type Bucket struct {
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
	Points int      `yaml:"points"`
}

func (b Bucket) match(v float64) bool {
	return (b.Min == nil || v >= *b.Min) && (b.Max == nil || v <= *b.Max)
}

// BucketFactor is a table-driven factor: first matching bucket wins, no match scores zero,
// unknown input scores Neutral.
type BucketFactor struct {
	name    string
	max     int
	neutral int
	buckets []Bucket
	input   InputFunc
}

func NewBucketFactor(name string, maxPoints, neutral int, buckets []Bucket, input InputFunc) *BucketFactor {
	return &BucketFactor{name: name, max: maxPoints, neutral: neutral, buckets: buckets, input: input}
}

func (f *BucketFactor) Name() string { return f.name }
func (f *BucketFactor) Max() int     { return f.max }

func (f *BucketFactor) Score(zone models.ZoneData, market models.MarketData) int {
	v, ok := f.input(zone, market)
	if !ok {
		return f.neutral
	}
	for _, b := range f.buckets {
		if b.match(v) {
			return b.Points
		}
	}
	return 0
}

// FuncFactor adapts a plain function to Factor.
type FuncFactor struct {
	name string
	max  int
	fn   func(models.ZoneData, models.MarketData) int
}

func NewFuncFactor(name string, maxPoints int, fn func(models.ZoneData, models.MarketData) int) *FuncFactor {
	return &FuncFactor{name: name, max: maxPoints, fn: fn}
}

func (f *FuncFactor) Name() string { return f.name }
func (f *FuncFactor) Max() int     { return f.max }
func (f *FuncFactor) Score(zone models.ZoneData, market models.MarketData) int {
	return f.fn(zone, market)
}

// inputs maps each factor name to the zone/market field it reads.
var inputs = map[string]InputFunc{
	models.FactorDeparture:      floatInput(func(z models.ZoneData) *float64 { return z.DepartureRatio }),
	models.FactorTimeAtLevel:    intInput(func(z models.ZoneData) *int { return z.CandlesAtLevel }),
	models.FactorFreshness:      intInput(func(z models.ZoneData) *int { return z.TestCount }),
	models.FactorProfitMargin:   floatInput(func(z models.ZoneData) *float64 { return z.ProfitMarginR }),
	models.FactorTrendAlignment: trendInput,
	models.FactorOrigin:         boolInput(func(z models.ZoneData) *bool { return z.IsOrigin }),
	models.FactorArrival:        floatInput(func(z models.ZoneData) *float64 { return z.ArrivalRatio }),
	models.FactorRiskReward:     riskRewardInput,
}

func floatInput(get func(models.ZoneData) *float64) InputFunc {
	return func(z models.ZoneData, _ models.MarketData) (float64, bool) {
		if p := get(z); p != nil {
			return *p, true
		}
		return 0, false
	}
}

func intInput(get func(models.ZoneData) *int) InputFunc {
	return func(z models.ZoneData, _ models.MarketData) (float64, bool) {
		if p := get(z); p != nil {
			return float64(*p), true
		}
		return 0, false
	}
}

func boolInput(get func(models.ZoneData) *bool) InputFunc {
	return func(z models.ZoneData, _ models.MarketData) (float64, bool) {
		if p := get(z); p != nil {
			return b2f(*p), true
		}
		return 0, false
	}
}

// trendInput prefers the explicit flag, then compares the zone side with the higher-timeframe trend.
func trendInput(z models.ZoneData, m models.MarketData) (float64, bool) {
	if z.TrendAligned != nil {
		return b2f(*z.TrendAligned), true
	}
	if z.Direction.Valid() && m.HigherTrend.Valid() {
		return b2f(z.Direction == m.HigherTrend), true
	}
	return 0, false
}

func riskRewardInput(z models.ZoneData, _ models.MarketData) (float64, bool) {
	if z.RiskReward != nil {
		return *z.RiskReward, true
	}
	if rr := DeriveRiskReward(z.Direction, z.Entry, z.Stop, z.Target); rr != nil {
		return *rr, true
	}
	return 0, false
}

// DeriveRiskReward computes reward/risk from entry, stop and target. Nil when any level is
// missing or the levels are inconsistent with the direction.
func DeriveRiskReward(dir models.Direction, entry, stop, target *float64) *float64 {
	if entry == nil || stop == nil || target == nil {
		return nil
	}
	var risk, reward float64
	switch dir {
	case models.Long:
		risk, reward = *entry-*stop, *target-*entry
	case models.Short:
		risk, reward = *stop-*entry, *entry-*target
	default:
		return nil
	}
	if risk <= 0 || reward <= 0 {
		return nil
	}
	rr := reward / risk
	return &rr
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
