package indicators

import "SetupScanner/internal/domain/models"

// swingWindow is the number of bars each side that a swing must strictly beat.
const swingWindow = 2

// Field selectors for candle swings.
func High(c models.Candle) float64  { return c.High }
func Low(c models.Candle) float64   { return c.Low }
func Close(c models.Candle) float64 { return c.Close }

// RSIValue selects the value of an RSI point.
func RSIValue(p models.RSIPoint) float64 { return p.Value }

// FindSwingHighs returns the last lookback strict swing highs, oldest first. Indices are
// positions in data. lookback <= 0 returns every swing.
func FindSwingHighs[T any](data []T, lookback int, field func(T) float64) []models.SwingPoint {
	return findSwings(data, lookback, field, func(v, n float64) bool { return v > n })
}

// FindSwingLows is the strict-minimum counterpart of FindSwingHighs.
func FindSwingLows[T any](data []T, lookback int, field func(T) float64) []models.SwingPoint {
	return findSwings(data, lookback, field, func(v, n float64) bool { return v < n })
}

func findSwings[T any](data []T, lookback int, field func(T) float64, beats func(v, n float64) bool) []models.SwingPoint {
	swings := []models.SwingPoint{}
	for i := swingWindow; i < len(data)-swingWindow; i++ {
		v := field(data[i])
		ok := true
		for k := 1; k <= swingWindow; k++ {
			if !beats(v, field(data[i-k])) || !beats(v, field(data[i+k])) {
				ok = false
				break
			}
		}
		if ok {
			swings = append(swings, models.SwingPoint{Index: i, Value: v})
		}
	}
	if lookback > 0 && len(swings) > lookback {
		swings = swings[len(swings)-lookback:]
	}
	return swings
}

// RSISwingHighs finds swing highs on an RSI series and reports them at candle indices.
func RSISwingHighs(points []models.RSIPoint, lookback int) []models.SwingPoint {
	return toCandleIndex(points, FindSwingHighs(points, lookback, RSIValue))
}

// RSISwingLows finds swing lows on an RSI series and reports them at candle indices.
func RSISwingLows(points []models.RSIPoint, lookback int) []models.SwingPoint {
	return toCandleIndex(points, FindSwingLows(points, lookback, RSIValue))
}

func toCandleIndex(points []models.RSIPoint, swings []models.SwingPoint) []models.SwingPoint {
	for i := range swings {
		swings[i].Index = points[swings[i].Index].Index
	}
	return swings
}
