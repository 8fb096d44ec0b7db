package indicator

import "marketpulse/internal/model"

// StochRSI applies a stochastic oscillator to the RSI series itself:
// fastK = position of the latest RSI within its stochPeriod range,
// fastD = SMA(dPeriod) of the fastK series. Returns nil when the candle
// series cannot produce at least stochPeriod RSI values.
func StochRSI(candles []model.Candle, rsiP, stochP, dPeriod int) *model.StochasticRSI {
	rsis := rsiSeries(closes(candles), rsiP)
	if len(rsis) < stochP {
		return nil
	}

	fastKs := make([]float64, 0, len(rsis)-stochP+1)
	for end := stochP; end <= len(rsis); end++ {
		window := rsis[end-stochP : end]
		lo, hi := window[0], window[0]
		for _, v := range window {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		k := 50.0 // flat RSI window reads as the midpoint
		if hi > lo {
			k = (window[len(window)-1] - lo) / (hi - lo) * 100.0
		}
		fastKs = append(fastKs, k)
	}

	dWindow := fastKs
	if len(dWindow) > dPeriod {
		dWindow = dWindow[len(dWindow)-dPeriod:]
	}
	return &model.StochasticRSI{
		FastK: fastKs[len(fastKs)-1],
		FastD: sma(dWindow),
	}
}
