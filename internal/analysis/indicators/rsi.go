// Package indicators holds pure indicator functions over candle slices.
package indicators

import "SetupScanner/internal/domain/models"

const DefaultRSIPeriod = 14

// CalculateRSI computes Wilder RSI over candle closes. The first point sits at index period;
// fewer than period+1 candles yields an empty slice.
func CalculateRSI(candles []models.Candle, period int) []models.RSIPoint {
	return RSIFromCloses(models.Closes(candles), period)
}

// RSIFromCloses is CalculateRSI over raw closes.
func RSIFromCloses(closes []float64, period int) []models.RSIPoint {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return []models.RSIPoint{}
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	p := float64(period)
	avgGain, avgLoss := gain/p, loss/p

	out := make([]models.RSIPoint, 0, len(closes)-period)
	out = append(out, models.RSIPoint{Index: period, Value: rsiValue(avgGain, avgLoss)})

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out = append(out, models.RSIPoint{Index: i, Value: rsiValue(avgGain, avgLoss)})
	}
	return out
}

// rsiValue treats a zero average loss as RS = 100.
func rsiValue(avgGain, avgLoss float64) float64 {
	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}

// LastRSI returns the most recent RSI value.
func LastRSI(points []models.RSIPoint) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// RSIAt returns the RSI value aligned to candle index idx.
func RSIAt(points []models.RSIPoint, idx int) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	pos := idx - points[0].Index
	if pos < 0 || pos >= len(points) || points[pos].Index != idx {
		return 0, false
	}
	return points[pos].Value, true
}
