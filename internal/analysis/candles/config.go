package candles

// Config holds the shape thresholds (ratios of range or body) and signal points.
type Config struct {
	DojiBodyRatio          float64 `yaml:"doji_body_ratio"`
	HammerMinBodyRatio     float64 `yaml:"hammer_min_body_ratio"`
	HammerWickToBody       float64 `yaml:"hammer_wick_to_body"`
	HammerOppositeToBody   float64 `yaml:"hammer_opposite_to_body"`
	PinBarWickRatio        float64 `yaml:"pin_bar_wick_ratio"`
	PinBarOppositeRatio    float64 `yaml:"pin_bar_opposite_ratio"`
	StrongBodyRatio        float64 `yaml:"strong_body_ratio"`
	RejectionWickRatio     float64 `yaml:"rejection_wick_ratio"`
	CloseExtremeRatio      float64 `yaml:"close_extreme_ratio"`
	VolumeSurgeRatio       float64 `yaml:"volume_surge_ratio"`
	ConfirmationThreshold  int     `yaml:"confirmation_threshold"`
	EngulfingPoints        int     `yaml:"engulfing_points"`
	HammerPoints           int     `yaml:"hammer_points"`
	StrongBodyPoints       int     `yaml:"strong_body_points"`
	RejectionWickPoints    int     `yaml:"rejection_wick_points"`
	CloseNearExtremePoints int     `yaml:"close_near_extreme_points"`
	PinBarPoints           int     `yaml:"pin_bar_points"`
	VolumeSurgePoints      int     `yaml:"volume_surge_points"`
}

func DefaultConfig() Config {
	return Config{
		DojiBodyRatio:          0.1,
		HammerMinBodyRatio:     0.2,
		HammerWickToBody:       2.0,
		HammerOppositeToBody:   0.3,
		PinBarWickRatio:        0.6,
		PinBarOppositeRatio:    0.15,
		StrongBodyRatio:        0.6,
		RejectionWickRatio:     0.5,
		CloseExtremeRatio:      0.25,
		VolumeSurgeRatio:       1.5,
		ConfirmationThreshold:  30,
		EngulfingPoints:        30,
		HammerPoints:           25,
		StrongBodyPoints:       20,
		RejectionWickPoints:    25,
		CloseNearExtremePoints: 15,
		PinBarPoints:           20,
		VolumeSurgePoints:      10,
	}
}
