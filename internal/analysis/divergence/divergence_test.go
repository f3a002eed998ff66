package divergence

import (
	"testing"
	"time"

	"SetupScanner/internal/domain/models"
)

const n = 25

// flatCandles returns n candles with high 90 and low 80 so no swings exist unless set.
func flatCandles() []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Time: base.Add(time.Duration(i) * time.Hour), Open: 85, High: 90, Low: 80, Close: 85, Volume: 10}
	}
	return out
}

func flatRSI(last float64) []models.RSIPoint {
	out := make([]models.RSIPoint, n)
	for i := range out {
		out[i] = models.RSIPoint{Index: i, Value: 50}
	}
	out[n-1].Value = last
	return out
}

func bearishSetup(last float64) ([]models.Candle, []models.RSIPoint) {
	c := flatCandles()
	c[4].High = 100
	c[12].High = 110
	r := flatRSI(last)
	r[5].Value = 75
	r[11].Value = 65
	return c, r
}

func bullishSetup(last float64) ([]models.Candle, []models.RSIPoint) {
	c := flatCandles()
	c[4].Low = 70
	c[12].Low = 63
	r := flatRSI(last)
	r[5].Value = 25
	r[11].Value = 35
	return c, r
}

func TestDetectBearish(t *testing.T) {
	c, r := bearishSetup(50)
	d := New(DefaultScoringConfig())

	res := d.DetectBearish(c, r)
	if res == nil {
		t.Fatalf("expected bearish divergence")
	}
	if res.Type != models.DivergenceBearish || res.PriceLevel1 != 100 || res.PriceLevel2 != 110 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.IndicatorLevel1 != 75 || res.IndicatorLevel2 != 65 {
		t.Fatalf("unexpected rsi levels %+v", res)
	}
	// min(10%, 13.33%)
	if res.Strength < 9.999 || res.Strength > 10.001 {
		t.Fatalf("strength = %v", res.Strength)
	}
	if d.DetectBullish(c, r) != nil {
		t.Fatalf("no bullish divergence expected")
	}
}

func TestDetectBullish(t *testing.T) {
	c, r := bullishSetup(50)
	res := New(DefaultScoringConfig()).Detect(c, r, models.Long)
	if res == nil || res.Type != models.DivergenceBullish {
		t.Fatalf("expected bullish divergence, got %+v", res)
	}
	if res.PriceLevel2 >= res.PriceLevel1 || res.IndicatorLevel2 <= res.IndicatorLevel1 {
		t.Fatalf("levels do not diverge: %+v", res)
	}
}

func TestNoDivergenceWhenRSIConfirms(t *testing.T) {
	c, r := bearishSetup(50)
	r[11].Value = 80 // higher RSI high confirms the price high
	if res := New(DefaultScoringConfig()).DetectBearish(c, r); res != nil {
		t.Fatalf("unexpected divergence %+v", res)
	}
}

func TestRSISwingTooFarFromPriceSwing(t *testing.T) {
	c, r := bearishSetup(50)
	r[11].Value = 50
	r[18].Value = 65 // six candles from the price high at 12
	if res := New(DefaultScoringConfig()).DetectBearish(c, r); res != nil {
		t.Fatalf("unexpected divergence %+v", res)
	}
}

func TestScore(t *testing.T) {
	d := New(DefaultScoringConfig())

	cases := []struct {
		name  string
		setup func() ([]models.Candle, []models.RSIPoint)
		dir   models.Direction
		want  int
	}{
		{"bearish confirms short", func() ([]models.Candle, []models.RSIPoint) { return bearishSetup(50) }, models.Short, 60},
		{"bearish confirms short overbought", func() ([]models.Candle, []models.RSIPoint) { return bearishSetup(72) }, models.Short, 80},
		{"bearish confirms short elevated", func() ([]models.Candle, []models.RSIPoint) { return bearishSetup(65) }, models.Short, 70},
		{"bearish opposes long", func() ([]models.Candle, []models.RSIPoint) { return bearishSetup(50) }, models.Long, 0},
		{"bullish confirms long oversold", func() ([]models.Candle, []models.RSIPoint) { return bullishSetup(25) }, models.Long, 80},
		{"rsi only oversold", func() ([]models.Candle, []models.RSIPoint) { return flatCandles(), flatRSI(25) }, models.Long, 15},
		{"rsi only overbought", func() ([]models.Candle, []models.RSIPoint) { return flatCandles(), flatRSI(75) }, models.Short, 15},
		{"nothing", func() ([]models.Candle, []models.RSIPoint) { return flatCandles(), flatRSI(50) }, models.Short, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, r := tc.setup()
			got := d.Score(c, r, tc.dir)
			if got.Score != tc.want {
				t.Fatalf("score = %d, want %d (%+v)", got.Score, tc.want, got)
			}
		})
	}
}

func TestScoreOpposingIsReported(t *testing.T) {
	c, r := bearishSetup(50)
	a := New(DefaultScoringConfig()).Score(c, r, models.Long)
	if a.Opposing == nil || a.Divergence != nil {
		t.Fatalf("unexpected assessment %+v", a)
	}
}

func TestScoreClamped(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.BaseBonus = 90
	cfg.StrengthBonus = 90
	c, r := bearishSetup(75)
	if got := New(cfg).Score(c, r, models.Short).Score; got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestScoreInvalidDirection(t *testing.T) {
	c, r := bearishSetup(75)
	if got := New(DefaultScoringConfig()).Score(c, r, "SIDEWAYS"); got.Score != 0 || got.Divergence != nil {
		t.Fatalf("unexpected %+v", got)
	}
}
