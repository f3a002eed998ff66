package candles

import "SetupScanner/internal/domain/models"

// CheckConfirmation evaluates the direction's shapes against the last candle (engulfing uses the
// last two). Fewer than two candles gives a zero result.
func (a *Analyzer) CheckConfirmation(candles []models.Candle, dir models.Direction) models.ConfirmationResult {
	res := models.ConfirmationResult{Signals: []string{}, LastCandle: models.CandleNeutral}
	if len(candles) < 2 || !dir.Valid() {
		return res
	}
	prev, last := candles[len(candles)-2], candles[len(candles)-1]
	res.LastCandle = a.Classify(last)

	score := 0
	add := func(ok bool, signal string, points int) {
		if ok {
			res.Signals = append(res.Signals, signal)
			score += points
		}
	}

	r := last.Range()
	if dir == models.Long {
		add(a.IsBullishEngulfing(prev, last), models.SignalBullishEngulfing, a.cfg.EngulfingPoints)
		add(a.IsHammer(last), models.SignalHammer, a.cfg.HammerPoints)
		add(last.IsBullish() && a.isStrongBody(last), models.SignalStrongBody, a.cfg.StrongBodyPoints)
		add(r > 0 && last.LowerWick() >= a.cfg.RejectionWickRatio*r, models.SignalRejectionWick, a.cfg.RejectionWickPoints)
		add(r > 0 && last.High-last.Close <= a.cfg.CloseExtremeRatio*r, models.SignalCloseNearExtreme, a.cfg.CloseNearExtremePoints)
		add(a.IsBullishPinBar(last), models.SignalPinBar, a.cfg.PinBarPoints)
	} else {
		add(a.IsBearishEngulfing(prev, last), models.SignalBearishEngulfing, a.cfg.EngulfingPoints)
		add(a.IsShootingStar(last), models.SignalShootingStar, a.cfg.HammerPoints)
		add(last.IsBearish() && a.isStrongBody(last), models.SignalStrongBody, a.cfg.StrongBodyPoints)
		add(r > 0 && last.UpperWick() >= a.cfg.RejectionWickRatio*r, models.SignalRejectionWick, a.cfg.RejectionWickPoints)
		add(r > 0 && last.Close-last.Low <= a.cfg.CloseExtremeRatio*r, models.SignalCloseNearExtreme, a.cfg.CloseNearExtremePoints)
		add(a.IsBearishPinBar(last), models.SignalPinBar, a.cfg.PinBarPoints)
	}

	if prev.Volume > 0 && last.Volume > a.cfg.VolumeSurgeRatio*prev.Volume {
		add(true, models.SignalVolumeSurge, a.cfg.VolumeSurgePoints)
	}

	res.Score = clamp(score, 0, 100)
	res.HasConfirmation = res.Score >= a.cfg.ConfirmationThreshold
	return res
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
