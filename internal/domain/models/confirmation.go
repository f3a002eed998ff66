package models

// Signal names reported by the candle confirmation analyzer.
const (
	SignalBullishEngulfing = "bullish_engulfing"
	SignalBearishEngulfing = "bearish_engulfing"
	SignalHammer           = "hammer"
	SignalShootingStar     = "shooting_star"
	SignalStrongBody       = "strong_body"
	SignalRejectionWick    = "rejection_wick"
	SignalCloseNearExtreme = "close_near_extreme"
	SignalPinBar           = "pin_bar"
	SignalVolumeSurge      = "volume_surge"
)

type ConfirmationResult struct {
	Score           int         `json:"score"`
	Signals         []string    `json:"signals"`
	LastCandle      CandleClass `json:"last_candle"`
	HasConfirmation bool        `json:"has_confirmation"`
}
