package model

// BollingerBands holds the three bands plus the position of the last close
// within them. PercentB is the raw value — it exceeds [0,1] on breakouts.
type BollingerBands struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	PercentB float64 `json:"percentB"`
}

// StochasticRSI is the stochastic oscillator applied to the RSI series.
type StochasticRSI struct {
	FastK float64 `json:"fastK"`
	FastD float64 `json:"fastD"`
}

// ATR is the average true range.
type ATR struct {
	Value float64 `json:"value"`
}

// TechnicalIndicators bundles the derived signals for one (asset, timeframe).
// Each sub-indicator is nil when the series is too short to compute it —
// values are never fabricated from padding.
type TechnicalIndicators struct {
	BollingerBands *BollingerBands `json:"bollingerBands,omitempty"`
	StochasticRSI  *StochasticRSI  `json:"stochasticRsi,omitempty"`
	ATR            *ATR            `json:"atr,omitempty"`
}

// PatternDetection is one heuristic pattern hit with a confidence score.
type PatternDetection struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Confidence      float64  `json:"confidence"` // 0–100
	PredictedTarget *float64 `json:"predictedTarget,omitempty"`
}
