package model

// TimeToProfitResult is the output of the empirical hitting-time scan.
// EstimatedMinMinutes and EstimatedMaxMinutes are -1 when no starting
// point could be evaluated (insufficient history).
type TimeToProfitResult struct {
	Asset               Asset   `json:"asset"`
	CurrentRate         float64 `json:"currentRate"`
	TargetRate          float64 `json:"targetRate"`
	TargetDelta         float64 `json:"targetDelta"`
	LookbackMinutes     int     `json:"lookbackMinutes"`
	EstimatedMinMinutes int     `json:"estimatedMinMinutes"`
	EstimatedMaxMinutes int     `json:"estimatedMaxMinutes"`
	Probability         float64 `json:"probability"` // 0–100
	Samples             int     `json:"samples"`
}
