package models

// RSIPoint is an RSI value aligned to the candle index that closes its window.
type RSIPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// SwingPoint is a local extremum over a 2-before/2-after window.
type SwingPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}
