package indicator

import (
	"math"

	"marketpulse/internal/model"
)

// AverageTrueRange computes the mean true range over the most recent
// period candles. True range = max(high-low, |high-prevClose|,
// |low-prevClose|). Returns nil with fewer than period+1 candles (the
// extra one supplies the first previous close).
func AverageTrueRange(candles []model.Candle, period int) *model.ATR {
	if len(candles) < period+1 {
		return nil
	}
	window := candles[len(candles)-period-1:]

	sum := 0.0
	for i := 1; i < len(window); i++ {
		sum += trueRange(window[i], window[i-1].Close)
	}
	return &model.ATR{Value: sum / float64(period)}
}

func trueRange(c model.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if v := math.Abs(c.High - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(c.Low - prevClose); v > tr {
		tr = v
	}
	return tr
}
