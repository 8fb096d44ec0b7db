package indicator

import (
	"fmt"
	"math"

	"marketpulse/internal/model"
)

// Detector is one independent heuristic scan over a candle window.
// Detectors never mutate the input and may emit zero detections; new ones
// plug in without touching the engine orchestration.
type Detector func(candles []model.Candle) []model.PatternDetection

var defaultDetectors = []Detector{
	DetectFibonacci,
	DetectSupportResistance,
	DetectDivergence,
	DetectShapes,
}

const fibWindow = 100

var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// DetectFibonacci checks whether the last close sits on a Fibonacci
// retracement level of the recent swing high/low range.
func DetectFibonacci(candles []model.Candle) []model.PatternDetection {
	if len(candles) < 10 {
		return nil
	}
	window := candles
	if len(window) > fibWindow {
		window = window[len(window)-fibWindow:]
	}

	swingHigh, swingLow := window[0].High, window[0].Low
	for _, c := range window {
		if c.High > swingHigh {
			swingHigh = c.High
		}
		if c.Low < swingLow {
			swingLow = c.Low
		}
	}
	span := swingHigh - swingLow
	if span <= 0 {
		return nil
	}

	last := window[len(window)-1].Close
	tolerance := span * 0.015

	var out []model.PatternDetection
	for _, ratio := range fibRatios {
		level := swingHigh - span*ratio
		dist := math.Abs(last - level)
		if dist > tolerance {
			continue
		}
		target := swingHigh // retracement levels act as bounce points back toward the swing high
		confidence := 55 + 25*(1-dist/tolerance)
		out = append(out, model.PatternDetection{
			Name:            "fibonacci_retracement",
			Description:     fmt.Sprintf("Price holding the %.1f%% retracement of the recent swing", ratio*100),
			Confidence:      confidence,
			PredictedTarget: &target,
		})
	}
	return out
}

const (
	srWindow     = 120
	srBins       = 40
	srMinTouches = 3
)

// DetectSupportResistance clusters candle lows and highs into price bins
// and reports the strongest support below and resistance above the last
// close.
func DetectSupportResistance(candles []model.Candle) []model.PatternDetection {
	if len(candles) < 20 {
		return nil
	}
	window := candles
	if len(window) > srWindow {
		window = window[len(window)-srWindow:]
	}

	lo, hi := window[0].Low, window[0].High
	for _, c := range window {
		if c.Low < lo {
			lo = c.Low
		}
		if c.High > hi {
			hi = c.High
		}
	}
	span := hi - lo
	if span <= 0 {
		return nil
	}
	binSize := span / srBins

	supports := make(map[int]int)
	resistances := make(map[int]int)
	for _, c := range window {
		supports[int((c.Low-lo)/binSize)]++
		resistances[int((c.High-lo)/binSize)]++
	}

	last := window[len(window)-1].Close
	var out []model.PatternDetection

	if bin, touches := strongestBin(supports, lo, binSize, last, true); touches >= srMinTouches {
		level := lo + (float64(bin)+0.5)*binSize
		out = append(out, srDetection("support_level", level, touches))
	}
	if bin, touches := strongestBin(resistances, lo, binSize, last, false); touches >= srMinTouches {
		level := lo + (float64(bin)+0.5)*binSize
		out = append(out, srDetection("resistance_level", level, touches))
	}
	return out
}

// strongestBin picks the most-touched bin strictly below (below=true) or
// above the reference price.
func strongestBin(counts map[int]int, lo, binSize, ref float64, below bool) (int, int) {
	bestBin, bestTouches := 0, 0
	for bin, touches := range counts {
		level := lo + (float64(bin)+0.5)*binSize
		if below && level >= ref {
			continue
		}
		if !below && level <= ref {
			continue
		}
		if touches > bestTouches {
			bestBin, bestTouches = bin, touches
		}
	}
	return bestBin, bestTouches
}

func srDetection(name string, level float64, touches int) model.PatternDetection {
	confidence := 35 + 12*float64(touches)
	if confidence > 90 {
		confidence = 90
	}
	kind := "Support"
	if name == "resistance_level" {
		kind = "Resistance"
	}
	target := level
	return model.PatternDetection{
		Name:            name,
		Description:     fmt.Sprintf("%s near %.2f touched %d times in the recent window", kind, level, touches),
		Confidence:      confidence,
		PredictedTarget: &target,
	}
}

const divergenceHalf = 10

// DetectDivergence compares price extremes against RSI extremes over two
// adjacent windows: price making a lower low while RSI makes a higher low
// is bullish; a higher high with a weaker RSI high is bearish.
func DetectDivergence(candles []model.Candle) []model.PatternDetection {
	cls := closes(candles)
	rsis := rsiSeries(cls, rsiPeriod)
	if len(rsis) < 2*divergenceHalf {
		return nil
	}

	// rsis[i] aligns with candles[i+rsiPeriod]
	aligned := candles[rsiPeriod:]
	n := len(rsis)
	prevC, prevR := aligned[n-2*divergenceHalf:n-divergenceHalf], rsis[n-2*divergenceHalf:n-divergenceHalf]
	curC, curR := aligned[n-divergenceHalf:], rsis[n-divergenceHalf:]

	prevLow, prevLowRSI := minLow(prevC, prevR)
	curLow, curLowRSI := minLow(curC, curR)
	prevHigh, prevHighRSI := maxHigh(prevC, prevR)
	curHigh, curHighRSI := maxHigh(curC, curR)

	var out []model.PatternDetection
	if curLow < prevLow && curLowRSI > prevLowRSI {
		out = append(out, model.PatternDetection{
			Name:        "bullish_divergence",
			Description: "Price set a lower low while RSI set a higher low",
			Confidence:  65,
		})
	}
	if curHigh > prevHigh && curHighRSI < prevHighRSI {
		out = append(out, model.PatternDetection{
			Name:        "bearish_divergence",
			Description: "Price set a higher high while RSI set a lower high",
			Confidence:  65,
		})
	}
	return out
}

func minLow(candles []model.Candle, rsis []float64) (float64, float64) {
	low, rsi := candles[0].Low, rsis[0]
	for i, c := range candles {
		if c.Low < low {
			low, rsi = c.Low, rsis[i]
		}
	}
	return low, rsi
}

func maxHigh(candles []model.Candle, rsis []float64) (float64, float64) {
	high, rsi := candles[0].High, rsis[0]
	for i, c := range candles {
		if c.High > high {
			high, rsi = c.High, rsis[i]
		}
	}
	return high, rsi
}

const (
	shapeWindow       = 60
	doubleTopPeakTol  = 0.005 // peaks within 0.5% of each other
	doubleTopDepthMin = 0.02  // trough at least 2% below the peaks
)

// DetectShapes runs the multi-bar shape matchers: engulfing candles and
// double top/bottom.
func DetectShapes(candles []model.Candle) []model.PatternDetection {
	var out []model.PatternDetection
	out = append(out, detectEngulfing(candles)...)
	out = append(out, detectDoubleExtremes(candles)...)
	return out
}

func detectEngulfing(candles []model.Candle) []model.PatternDetection {
	if len(candles) < 2 {
		return nil
	}
	prev, last := candles[len(candles)-2], candles[len(candles)-1]
	prevBody := math.Abs(prev.Close - prev.Open)
	if prevBody == 0 {
		return nil
	}

	if prev.Close < prev.Open && last.Close > last.Open &&
		last.Open <= prev.Close && last.Close >= prev.Open {
		return []model.PatternDetection{{
			Name:        "bullish_engulfing",
			Description: "Green body fully engulfs the prior red body",
			Confidence:  70,
		}}
	}
	if prev.Close > prev.Open && last.Close < last.Open &&
		last.Open >= prev.Close && last.Close <= prev.Open {
		return []model.PatternDetection{{
			Name:        "bearish_engulfing",
			Description: "Red body fully engulfs the prior green body",
			Confidence:  70,
		}}
	}
	return nil
}

func detectDoubleExtremes(candles []model.Candle) []model.PatternDetection {
	if len(candles) < 20 {
		return nil
	}
	window := candles
	if len(window) > shapeWindow {
		window = window[len(window)-shapeWindow:]
	}
	half := len(window) / 2
	first, second := window[:half], window[half:]

	var out []model.PatternDetection

	// Double top: matching peaks in both halves with a deep trough between.
	p1, i1 := peakHigh(first)
	p2, i2 := peakHigh(second)
	if p1 > 0 && math.Abs(p1-p2)/p1 <= doubleTopPeakTol {
		trough := troughLow(window[i1 : half+i2+1])
		avgPeak := (p1 + p2) / 2
		if (avgPeak-trough)/avgPeak >= doubleTopDepthMin {
			target := trough - (avgPeak - trough) // measured move below the neckline
			out = append(out, model.PatternDetection{
				Name:            "double_top",
				Description:     fmt.Sprintf("Two peaks near %.2f with a trough at %.2f", avgPeak, trough),
				Confidence:      60,
				PredictedTarget: &target,
			})
		}
	}

	// Double bottom: mirror image.
	b1, j1 := troughLowIdx(first)
	b2, j2 := troughLowIdx(second)
	if b1 > 0 && math.Abs(b1-b2)/b1 <= doubleTopPeakTol {
		crest := peakOnly(window[j1 : half+j2+1])
		avgBottom := (b1 + b2) / 2
		if (crest-avgBottom)/avgBottom >= doubleTopDepthMin {
			target := crest + (crest - avgBottom)
			out = append(out, model.PatternDetection{
				Name:            "double_bottom",
				Description:     fmt.Sprintf("Two bottoms near %.2f with a crest at %.2f", avgBottom, crest),
				Confidence:      60,
				PredictedTarget: &target,
			})
		}
	}
	return out
}

func peakHigh(candles []model.Candle) (float64, int) {
	high, idx := candles[0].High, 0
	for i, c := range candles {
		if c.High > high {
			high, idx = c.High, i
		}
	}
	return high, idx
}

func troughLow(candles []model.Candle) float64 {
	low := candles[0].Low
	for _, c := range candles {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

func troughLowIdx(candles []model.Candle) (float64, int) {
	low, idx := candles[0].Low, 0
	for i, c := range candles {
		if c.Low < low {
			low, idx = c.Low, i
		}
	}
	return low, idx
}

func peakOnly(candles []model.Candle) float64 {
	high := candles[0].High
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
	}
	return high
}
