// Package indicator derives technical signals from an ordered candle
// series. All functions are pure: input is one (asset, timeframe) series
// ascending by time, output is a TechnicalIndicators value plus zero or
// more pattern detections. Indicators that need more history than is
// available are omitted, never padded.
package indicator

import (
	"math"

	"marketpulse/internal/model"
)

const (
	bollingerPeriod = 20
	bollingerWidth  = 2.0
	rsiPeriod       = 14
	stochPeriod     = 14
	fastDPeriod     = 3
	atrPeriod       = 14
)

// Evaluate computes all indicators and runs the default pattern detectors.
func Evaluate(candles []model.Candle) (model.TechnicalIndicators, []model.PatternDetection) {
	return EvaluateWith(candles, defaultDetectors)
}

// EvaluateWith computes all indicators and runs the given detectors.
// Detectors are independent; several may fire for the same window and the
// result set is unordered.
func EvaluateWith(candles []model.Candle, detectors []Detector) (model.TechnicalIndicators, []model.PatternDetection) {
	ind := model.TechnicalIndicators{
		BollingerBands: Bollinger(candles, bollingerPeriod, bollingerWidth),
		StochasticRSI:  StochRSI(candles, rsiPeriod, stochPeriod, fastDPeriod),
		ATR:            AverageTrueRange(candles, atrPeriod),
	}

	var patterns []model.PatternDetection
	for _, detect := range detectors {
		patterns = append(patterns, detect(candles)...)
	}
	return ind, patterns
}

// closes extracts the close series.
func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// sma returns the simple moving average of vals.
func sma(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev returns the population standard deviation of vals around mean.
func stddev(vals []float64, mean float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vals))
	return math.Sqrt(variance)
}
