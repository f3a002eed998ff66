package models

// Odds factor names. The engine requires a calculator for each.
const (
	FactorDeparture      = "departure"
	FactorTimeAtLevel    = "time_at_level"
	FactorFreshness      = "freshness"
	FactorProfitMargin   = "profit_margin"
	FactorTrendAlignment = "trend_alignment"
	FactorOrigin         = "origin"
	FactorArrival        = "arrival"
	FactorRiskReward     = "risk_reward"
)

// FactorNames lists the eight factors in reporting order.
var FactorNames = []string{
	FactorDeparture,
	FactorTimeAtLevel,
	FactorFreshness,
	FactorProfitMargin,
	FactorTrendAlignment,
	FactorOrigin,
	FactorArrival,
	FactorRiskReward,
}

// ZoneData is the caller-assembled description of a supply/demand zone.
// Nil fields are unknown and score as neutral.
type ZoneData struct {
	Direction      Direction `json:"direction" validate:"omitempty,oneof=LONG SHORT"`
	DepartureRatio *float64  `json:"departure_ratio,omitempty" validate:"omitempty,gte=0"`
	CandlesAtLevel *int      `json:"candles_at_level,omitempty" validate:"omitempty,gte=0"`
	TestCount      *int      `json:"test_count,omitempty" validate:"omitempty,gte=0"`
	ProfitMarginR  *float64  `json:"profit_margin_r,omitempty" validate:"omitempty,gte=0"`
	TrendAligned   *bool     `json:"trend_aligned,omitempty"`
	IsOrigin       *bool     `json:"is_origin,omitempty"`
	ArrivalRatio   *float64  `json:"arrival_ratio,omitempty" validate:"omitempty,gte=0"`
	Entry          *float64  `json:"entry,omitempty" validate:"omitempty,gt=0"`
	Stop           *float64  `json:"stop,omitempty" validate:"omitempty,gt=0"`
	Target         *float64  `json:"target,omitempty" validate:"omitempty,gt=0"`
	RiskReward     *float64  `json:"risk_reward,omitempty" validate:"omitempty,gte=0"`
}

// MarketData is the live context a zone is scored against.
type MarketData struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Price       float64   `json:"price"`
	RSI         float64   `json:"rsi"`
	HigherTrend Direction `json:"higher_trend,omitempty"`
}

type OddsScoreResult struct {
	Factors             map[string]int `json:"factors"`
	TotalScore          int            `json:"total_score"`
	MaxScore            int            `json:"max_score"`
	Grade               string         `json:"grade"`
	Tradeable           bool           `json:"tradeable"`
	PositionSizePercent float64        `json:"position_size_percent"`
	Advice              string         `json:"advice"`
}

// PatternRecord is the sparse list-view form of a detected setup.
type PatternRecord struct {
	Symbol         string    `json:"symbol" validate:"required"`
	Timeframe      string    `json:"timeframe"`
	Direction      Direction `json:"direction" validate:"required,oneof=LONG SHORT"`
	Entry          *float64  `json:"entry,omitempty" validate:"omitempty,gt=0"`
	Stop           *float64  `json:"stop,omitempty" validate:"omitempty,gt=0"`
	Target         *float64  `json:"target,omitempty" validate:"omitempty,gt=0"`
	RiskReward     *float64  `json:"risk_reward,omitempty" validate:"omitempty,gte=0"`
	Tests          *int      `json:"tests,omitempty" validate:"omitempty,gte=0"`
	DepartureRatio *float64  `json:"departure_ratio,omitempty" validate:"omitempty,gte=0"`
	HigherTrend    Direction `json:"higher_trend,omitempty" validate:"omitempty,oneof=LONG SHORT"`
}
