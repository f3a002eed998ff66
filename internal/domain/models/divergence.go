package models

type DivergenceType string

const (
	DivergenceBullish DivergenceType = "bullish"
	DivergenceBearish DivergenceType = "bearish"
)

// Direction is the trade side a divergence supports.
func (t DivergenceType) Direction() Direction {
	if t == DivergenceBullish {
		return Long
	}
	return Short
}

// DivergenceResult pairs the two most recent price swings with the matching RSI swings.
type DivergenceResult struct {
	Type            DivergenceType `json:"type"`
	PriceLevel1     float64        `json:"price_level_1"`
	PriceLevel2     float64        `json:"price_level_2"`
	IndicatorLevel1 float64        `json:"indicator_level_1"`
	IndicatorLevel2 float64        `json:"indicator_level_2"`
	Strength        float64        `json:"strength"`
	PriceIndex1     int            `json:"price_index_1"`
	PriceIndex2     int            `json:"price_index_2"`
}
