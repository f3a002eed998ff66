package odds

import "SetupScanner/internal/domain/models"

// QuickScore approximates a full score from a list-view pattern record. Risk:reward is derived
// from entry/stop/target when not supplied and doubles as the profit margin in R; anything else
// missing scores neutral.
func (e *Engine) QuickScore(p models.PatternRecord) models.OddsScoreResult {
	zone := models.ZoneData{
		Direction:      p.Direction,
		TestCount:      p.Tests,
		DepartureRatio: p.DepartureRatio,
		Entry:          p.Entry,
		Stop:           p.Stop,
		Target:         p.Target,
		RiskReward:     p.RiskReward,
	}
	if zone.RiskReward == nil {
		zone.RiskReward = DeriveRiskReward(p.Direction, p.Entry, p.Stop, p.Target)
	}
	zone.ProfitMarginR = zone.RiskReward

	market := models.MarketData{
		Symbol:      p.Symbol,
		Timeframe:   p.Timeframe,
		HigherTrend: p.HigherTrend,
	}
	if p.Entry != nil {
		market.Price = *p.Entry
	}
	return e.Calculate(zone, market)
}
