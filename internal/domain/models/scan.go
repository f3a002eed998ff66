package models

import "time"

// Pattern filters for a scan.
const (
	PatternAll          = "all"
	PatternDivergence   = "divergence"
	PatternConfirmation = "confirmation"
)

// ScanRequest triggers one scan. Zone is optional; without it no odds score is produced.
type ScanRequest struct {
	Symbol        string    `json:"symbol" validate:"required"`
	Timeframe     string    `json:"timeframe" default:"1h" validate:"interval"`
	PatternFilter string    `json:"pattern_filter" default:"all" validate:"oneof=all divergence confirmation"`
	Direction     Direction `json:"direction" default:"LONG" validate:"oneof=LONG SHORT"`
	Limit         int       `json:"limit" default:"200" validate:"gte=20,lte=1000"`
	Zone          *ZoneData `json:"zone,omitempty"`
}

// ScanResult is what a scan publishes. Matched is false when the pattern filter rejected the setup.
type ScanResult struct {
	ID              string             `json:"id"`
	Symbol          string             `json:"symbol"`
	Timeframe       string             `json:"timeframe"`
	Direction       Direction          `json:"direction"`
	PatternFilter   string             `json:"pattern_filter"`
	ScannedAt       time.Time          `json:"scanned_at"`
	Candles         int                `json:"candles"`
	LastClose       float64            `json:"last_close"`
	RSI             *float64           `json:"rsi,omitempty"`
	Divergence      *DivergenceResult  `json:"divergence,omitempty"`
	DivergenceScore int                `json:"divergence_score"`
	Confirmation    ConfirmationResult `json:"confirmation"`
	Odds            *OddsScoreResult   `json:"odds,omitempty"`
	Matched         bool               `json:"matched"`
	Notes           []string           `json:"notes,omitempty"`
}
