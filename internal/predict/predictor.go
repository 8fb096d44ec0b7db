// Package predict estimates how long a price move of a given size takes,
// by mining historical candles for empirical hitting times.
package predict

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
)

const maxLookbackMinutes = 10080 // one week of 1m candles

// CandleSource supplies live candle history and spot prices; satisfied by
// the exchange adapter.
type CandleSource interface {
	GetCandles(ctx context.Context, asset model.Asset, interval model.Interval, limit int) []model.Candle
	GetPrice(ctx context.Context, asset model.Asset) (float64, bool)
}

// Archive supplies stored candle history when the exchange cannot cover
// the requested lookback; satisfied by the SQLite candle store.
type Archive interface {
	Recent(ctx context.Context, asset model.Asset, interval model.Interval, limit int) ([]model.Candle, error)
}

// Predictor runs the hitting-time scan. archive may be nil.
type Predictor struct {
	source  CandleSource
	archive Archive
	metrics *metrics.Metrics
}

// New creates a predictor. archive and m may be nil.
func New(source CandleSource, archive Archive, m *metrics.Metrics) *Predictor {
	return &Predictor{source: source, archive: archive, metrics: m}
}

// Predict scans the lookback window treating every candle close as a
// hypothetical entry and measuring the elapsed time until price first
// moves by targetDelta in the requested direction.
//
// Tie-break rule: an upward target counts as reached when a forward
// candle's HIGH touches it, a downward target when a LOW touches it; the
// close is not consulted. A zero delta is satisfied by the entry candle
// itself at zero elapsed minutes.
func (p *Predictor) Predict(ctx context.Context, asset model.Asset, targetDelta float64, lookbackMinutes int) (*model.TimeToProfitResult, error) {
	if !asset.Valid() {
		return nil, fmt.Errorf("unknown asset %q", asset)
	}
	if lookbackMinutes <= 0 {
		return nil, fmt.Errorf("lookbackMinutes must be positive, got %d", lookbackMinutes)
	}
	if lookbackMinutes > maxLookbackMinutes {
		lookbackMinutes = maxLookbackMinutes
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PredictDur.Observe(time.Since(start).Seconds())
		}
	}()

	candles := p.fetchLookback(ctx, asset, lookbackMinutes)

	result := scan(candles, targetDelta)
	result.Asset = asset
	result.TargetDelta = targetDelta
	result.LookbackMinutes = lookbackMinutes

	rate, ok := p.source.GetPrice(ctx, asset)
	if !ok && len(candles) > 0 {
		rate = candles[len(candles)-1].Close
	}
	result.CurrentRate = rate
	result.TargetRate = rate + targetDelta

	return result, nil
}

// fetchLookback prefers live exchange history at the finest granularity
// and falls back to the archive when the exchange returns fewer rows than
// the lookback needs.
func (p *Predictor) fetchLookback(ctx context.Context, asset model.Asset, lookbackMinutes int) []model.Candle {
	candles := p.source.GetCandles(ctx, asset, model.Interval1m, lookbackMinutes)
	if len(candles) >= lookbackMinutes || p.archive == nil {
		return candles
	}

	stored, err := p.archive.Recent(ctx, asset, model.Interval1m, lookbackMinutes)
	if err != nil {
		log.Printf("[predict] archive read failed for %s: %v", asset, err)
		return candles
	}
	if len(stored) > len(candles) {
		log.Printf("[predict] using archive history for %s: %d candles (exchange had %d)",
			asset, len(stored), len(candles))
		return stored
	}
	return candles
}

// scan performs the forward hitting-time scan over one candle series.
func scan(candles []model.Candle, targetDelta float64) *model.TimeToProfitResult {
	sentinel := &model.TimeToProfitResult{
		EstimatedMinMinutes: -1,
		EstimatedMaxMinutes: -1,
		Probability:         0,
		Samples:             0,
	}

	n := len(candles)
	if n == 0 {
		return sentinel
	}

	if targetDelta == 0 {
		// Target already met at entry for every starting point.
		return &model.TimeToProfitResult{
			EstimatedMinMinutes: 0,
			EstimatedMaxMinutes: 0,
			Probability:         100,
			Samples:             n,
		}
	}

	if n < 2 {
		return sentinel
	}

	samples := 0
	hits := 0
	minMinutes, maxMinutes := -1, -1

	for i := 0; i < n-1; i++ {
		entry := candles[i].Close
		target := entry + targetDelta
		samples++

		for j := i + 1; j < n; j++ {
			reached := false
			if targetDelta > 0 {
				reached = candles[j].High >= target
			} else {
				reached = candles[j].Low <= target
			}
			if !reached {
				continue
			}
			elapsed := int((candles[j].Time - candles[i].Time) / 60)
			hits++
			if minMinutes == -1 || elapsed < minMinutes {
				minMinutes = elapsed
			}
			if elapsed > maxMinutes {
				maxMinutes = elapsed
			}
			break
		}
	}

	if samples == 0 {
		return sentinel
	}
	return &model.TimeToProfitResult{
		EstimatedMinMinutes: minMinutes,
		EstimatedMaxMinutes: maxMinutes,
		Probability:         float64(hits) / float64(samples) * 100,
		Samples:             samples,
	}
}
