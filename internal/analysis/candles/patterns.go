// Package candles scores the last one or two candles as confirmation for a trade direction.
package candles

import "SetupScanner/internal/domain/models"

type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// IsDoji: body under DojiBodyRatio of range. A zero-range candle is a doji.
func (a *Analyzer) IsDoji(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return true
	}
	return c.Body()/r < a.cfg.DojiBodyRatio
}

// IsHammer: long lower wick, small upper wick, body not negligible. Polarity is ignored.
func (a *Analyzer) IsHammer(c models.Candle) bool {
	r, body := c.Range(), c.Body()
	if r <= 0 || body/r < a.cfg.HammerMinBodyRatio {
		return false
	}
	return c.LowerWick() >= a.cfg.HammerWickToBody*body && c.UpperWick() <= a.cfg.HammerOppositeToBody*body
}

// IsShootingStar is the inverted hammer at a high.
func (a *Analyzer) IsShootingStar(c models.Candle) bool {
	r, body := c.Range(), c.Body()
	if r <= 0 || body/r < a.cfg.HammerMinBodyRatio {
		return false
	}
	return c.UpperWick() >= a.cfg.HammerWickToBody*body && c.LowerWick() <= a.cfg.HammerOppositeToBody*body
}

func (a *Analyzer) IsBullishPinBar(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return false
	}
	return c.LowerWick() >= a.cfg.PinBarWickRatio*r && c.UpperWick() <= a.cfg.PinBarOppositeRatio*r
}

func (a *Analyzer) IsBearishPinBar(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return false
	}
	return c.UpperWick() >= a.cfg.PinBarWickRatio*r && c.LowerWick() <= a.cfg.PinBarOppositeRatio*r
}

// IsBullishEngulfing: a bearish prev body lies within the bullish cur body. Equal bodies count.
func (a *Analyzer) IsBullishEngulfing(prev, cur models.Candle) bool {
	return prev.IsBearish() && cur.IsBullish() &&
		cur.Open <= prev.Close && cur.Close >= prev.Open
}

// IsBearishEngulfing: a bullish prev body lies within the bearish cur body. Equal bodies count.
func (a *Analyzer) IsBearishEngulfing(prev, cur models.Candle) bool {
	return prev.IsBullish() && cur.IsBearish() &&
		cur.Open >= prev.Close && cur.Close <= prev.Open
}

func (a *Analyzer) isStrongBody(c models.Candle) bool {
	r := c.Range()
	return r > 0 && c.Body()/r >= a.cfg.StrongBodyRatio
}

// Classify labels a single candle.
func (a *Analyzer) Classify(c models.Candle) models.CandleClass {
	switch {
	case a.IsDoji(c):
		return models.CandleDoji
	case c.IsBullish():
		return models.CandleBullish
	case c.IsBearish():
		return models.CandleBearish
	}
	return models.CandleNeutral
}
