package indicator

import "marketpulse/internal/model"

// Bollinger computes Bollinger Bands over the most recent period closes:
// middle = SMA, upper/lower = middle ± width standard deviations.
// Returns nil when fewer than period candles exist.
func Bollinger(candles []model.Candle, period int, width float64) *model.BollingerBands {
	if len(candles) < period {
		return nil
	}
	window := closes(candles[len(candles)-period:])
	middle := sma(window)
	sd := stddev(window, middle)

	upper := middle + width*sd
	lower := middle - width*sd
	last := window[len(window)-1]

	return &model.BollingerBands{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		PercentB: percentB(last, upper, lower),
	}
}

// percentB is the position of close within the band range: 0 at the lower
// band, 1 at the upper. Raw — breakouts land outside [0,1]; display layers
// clamp. A degenerate zero-width band reads as the midpoint.
func percentB(close, upper, lower float64) float64 {
	if upper == lower {
		return 0.5
	}
	return (close - lower) / (upper - lower)
}
