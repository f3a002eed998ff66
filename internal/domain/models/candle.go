package models

import "time"

// Candle is one OHLCV bar. The most recent candle of a stream is replaced in place until it closes.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Range is high minus low.
func (c Candle) Range() float64 { return c.High - c.Low }

// Body is the absolute open/close distance.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func (c Candle) UpperWick() float64 { return c.High - max(c.Open, c.Close) }

func (c Candle) LowerWick() float64 { return min(c.Open, c.Close) - c.Low }

func (c Candle) IsBullish() bool { return c.Close > c.Open }

func (c Candle) IsBearish() bool { return c.Close < c.Open }

// CandleClass is the coarse classification of the last candle in a confirmation check.
type CandleClass string

const (
	CandleDoji    CandleClass = "DOJI"
	CandleBullish CandleClass = "BULLISH"
	CandleBearish CandleClass = "BEARISH"
	CandleNeutral CandleClass = "NEUTRAL"
)

// Closes extracts close prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
