package candles

import (
	"math/rand"
	"reflect"
	"testing"

	"SetupScanner/internal/domain/models"
)

func c(o, h, l, cl, v float64) models.Candle {
	return models.Candle{Open: o, High: h, Low: l, Close: cl, Volume: v}
}

var (
	hammer        = c(10, 11.2, 7, 11, 100)
	bullishSmall  = c(10, 10.3, 9.9, 10.2, 100)
	bearishSmall  = c(10.5, 10.6, 10.3, 10.4, 100)
	strongBearish = c(11, 11.1, 9, 9.2, 100)
	bullishPrev   = c(9.5, 10.6, 9.4, 10.5, 100)
	doji          = c(10, 11, 9, 10.05, 100)
)

func TestShapePredicates(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	if !a.IsHammer(hammer) {
		t.Errorf("hammer not detected")
	}
	if a.IsShootingStar(hammer) {
		t.Errorf("hammer reported as shooting star")
	}
	star := c(11, 14, 9.8, 10, 1)
	if !a.IsShootingStar(star) {
		t.Errorf("shooting star not detected")
	}
	if !a.IsDoji(doji) || a.IsDoji(strongBearish) {
		t.Errorf("doji detection wrong")
	}
	if !a.IsBullishPinBar(hammer) || a.IsBearishPinBar(hammer) {
		t.Errorf("pin bar detection wrong")
	}
	if !a.IsBullishEngulfing(bearishSmall, hammer) {
		t.Errorf("bullish engulfing not detected")
	}
	if a.IsBullishEngulfing(bullishSmall, hammer) {
		t.Errorf("same polarity must not engulf")
	}
	if !a.IsBearishEngulfing(bullishPrev, strongBearish) {
		t.Errorf("bearish engulfing not detected")
	}
	// bodies of equal size still engulf
	if !a.IsBullishEngulfing(c(10.4, 10.5, 9.9, 10, 1), c(10, 10.6, 9.9, 10.4, 1)) {
		t.Errorf("equal-body bullish engulfing not detected")
	}
	if !a.IsBearishEngulfing(c(10, 10.5, 9.9, 10.4, 1), c(10.4, 10.6, 9.9, 10, 1)) {
		t.Errorf("equal-body bearish engulfing not detected")
	}
}

func TestClassify(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	cases := map[models.CandleClass]models.Candle{
		models.CandleDoji:    doji,
		models.CandleBullish: hammer,
		models.CandleBearish: strongBearish,
	}
	for want, cd := range cases {
		if got := a.Classify(cd); got != want {
			t.Errorf("classify %+v = %s, want %s", cd, got, want)
		}
	}
	if got := a.Classify(c(10, 10, 10, 10, 0)); got != models.CandleDoji {
		t.Errorf("zero range = %s", got)
	}
}

func TestCheckConfirmation(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	cases := []struct {
		name    string
		candles []models.Candle
		dir     models.Direction
		score   int
		signals []string
		confirm bool
	}{
		{
			name:    "hammer long",
			candles: []models.Candle{bullishSmall, hammer},
			dir:     models.Long,
			score:   85,
			signals: []string{models.SignalHammer, models.SignalRejectionWick, models.SignalCloseNearExtreme, models.SignalPinBar},
			confirm: true,
		},
		{
			name:    "bearish engulfing short",
			candles: []models.Candle{bullishPrev, strongBearish},
			dir:     models.Short,
			score:   65,
			signals: []string{models.SignalBearishEngulfing, models.SignalStrongBody, models.SignalCloseNearExtreme},
			confirm: true,
		},
		{
			name:    "wrong direction",
			candles: []models.Candle{bullishPrev, strongBearish},
			dir:     models.Long,
			score:   0,
			signals: []string{},
		},
		{
			name:    "single candle",
			candles: []models.Candle{hammer},
			dir:     models.Long,
			score:   0,
			signals: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := a.CheckConfirmation(tc.candles, tc.dir)
			if got.Score != tc.score {
				t.Fatalf("score = %d, want %d (%v)", got.Score, tc.score, got.Signals)
			}
			if !reflect.DeepEqual(got.Signals, tc.signals) {
				t.Fatalf("signals = %v, want %v", got.Signals, tc.signals)
			}
			if got.HasConfirmation != tc.confirm {
				t.Fatalf("has confirmation = %v", got.HasConfirmation)
			}
		})
	}
}

func TestVolumeSurgeBonus(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	// 3x volume on a candle with no bearish shape
	prev := c(10, 10.5, 9.5, 10.2, 100)
	last := c(10, 11, 9, 10.05, 300)
	got := a.CheckConfirmation([]models.Candle{prev, last}, models.Short)
	if got.Score != 10 || !reflect.DeepEqual(got.Signals, []string{models.SignalVolumeSurge}) {
		t.Fatalf("score = %d signals = %v", got.Score, got.Signals)
	}
	if got.HasConfirmation {
		t.Fatalf("volume alone must stay below the confirmation threshold")
	}

	loud := strongBearish
	loud.Volume = 150
	if got := a.CheckConfirmation([]models.Candle{bullishSmall, loud}, models.Long); got.Score != 0 {
		t.Fatalf("exactly 1.5x scored %d", got.Score)
	}

	loudHammer := hammer
	loudHammer.Volume = 200
	got = a.CheckConfirmation([]models.Candle{bullishSmall, loudHammer}, models.Long)
	if got.Score != 95 || got.Signals[len(got.Signals)-1] != models.SignalVolumeSurge {
		t.Fatalf("score = %d signals = %v", got.Score, got.Signals)
	}
}

func TestConfirmationClamped(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	loudHammer := hammer
	loudHammer.Volume = 1000
	// engulfing + hammer + wick + close + pin bar + volume = 125
	got := a.CheckConfirmation([]models.Candle{bearishSmall, loudHammer}, models.Long)
	if got.Score != 100 {
		t.Fatalf("score = %d, want 100", got.Score)
	}
}

func TestConfirmationScoreAlwaysInRange(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		series := make([]models.Candle, 2)
		for j := range series {
			o := 100 + rng.Float64()*10
			cl := 100 + rng.Float64()*10
			h := max(o, cl) + rng.Float64()*5
			l := min(o, cl) - rng.Float64()*5
			series[j] = c(o, h, l, cl, rng.Float64()*1000)
		}
		for _, dir := range []models.Direction{models.Long, models.Short} {
			got := a.CheckConfirmation(series, dir)
			if got.Score < 0 || got.Score > 100 {
				t.Fatalf("score out of range: %d", got.Score)
			}
		}
	}
}
