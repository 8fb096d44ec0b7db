package predict

import (
	"context"
	"testing"

	"marketpulse/internal/model"
)

type fakeSource struct {
	candles []model.Candle
	price   float64
	priceOK bool
	calls   int
}

func (f *fakeSource) GetCandles(_ context.Context, _ model.Asset, _ model.Interval, _ int) []model.Candle {
	f.calls++
	return f.candles
}

func (f *fakeSource) GetPrice(_ context.Context, _ model.Asset) (float64, bool) {
	return f.price, f.priceOK
}

type fakeArchive struct {
	candles []model.Candle
	err     error
}

func (f *fakeArchive) Recent(_ context.Context, _ model.Asset, _ model.Interval, _ int) ([]model.Candle, error) {
	return f.candles, f.err
}

func minuteCandles(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = model.Candle{
			Time:  1700000000 + int64(i)*60,
			Open:  c,
			High:  c + 0.5,
			Low:   c - 0.5,
			Close: c,
		}
	}
	return out
}

func TestPredict_UnknownAsset(t *testing.T) {
	p := New(&fakeSource{}, nil, nil)
	if _, err := p.Predict(context.Background(), model.Asset("DOGE"), 1, 60); err == nil {
		t.Fatal("expected error for unknown asset")
	}
}

func TestPredict_InvalidLookback(t *testing.T) {
	p := New(&fakeSource{}, nil, nil)
	if _, err := p.Predict(context.Background(), model.AssetBTC, 1, 0); err == nil {
		t.Fatal("expected error for zero lookback")
	}
	if _, err := p.Predict(context.Background(), model.AssetBTC, 1, -5); err == nil {
		t.Fatal("expected error for negative lookback")
	}
}

func TestPredict_ZeroDelta(t *testing.T) {
	src := &fakeSource{candles: minuteCandles(100, 101, 102), price: 102, priceOK: true}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetBTC, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Probability != 100 {
		t.Errorf("probability: got %v, want 100", res.Probability)
	}
	if res.EstimatedMinMinutes != 0 || res.EstimatedMaxMinutes != 0 {
		t.Errorf("estimates: got %d/%d, want 0/0", res.EstimatedMinMinutes, res.EstimatedMaxMinutes)
	}
	if res.Samples != 3 {
		t.Errorf("samples: got %d, want 3", res.Samples)
	}
	if res.TargetRate != res.CurrentRate {
		t.Errorf("zero delta: targetRate %v should equal currentRate %v", res.TargetRate, res.CurrentRate)
	}
}

func TestPredict_EmptyHistorySentinel(t *testing.T) {
	src := &fakeSource{}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetETH, 5, 60)
	if err != nil {
		t.Fatal(err)
	}
	if res.EstimatedMinMinutes != -1 || res.EstimatedMaxMinutes != -1 {
		t.Errorf("estimates: got %d/%d, want -1/-1", res.EstimatedMinMinutes, res.EstimatedMaxMinutes)
	}
	if res.Probability != 0 || res.Samples != 0 {
		t.Errorf("got probability=%v samples=%d, want 0/0", res.Probability, res.Samples)
	}
}

func TestPredict_SingleCandleSentinel(t *testing.T) {
	src := &fakeSource{candles: minuteCandles(100)}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetETH, 5, 60)
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples != 0 || res.EstimatedMinMinutes != -1 {
		t.Errorf("one candle with nonzero delta: got %+v", res)
	}
}

func TestPredict_UpwardScan(t *testing.T) {
	// Closes: 100, 101, 102, 103. Highs are close+0.5.
	// Delta +2: entry 100 hits at high 102.5 (t+2m); entry 101 hits at 103.5
	// (t+2m); entry 102 never reaches 104. Samples=3, hits=2.
	src := &fakeSource{candles: minuteCandles(100, 101, 102, 103), price: 103, priceOK: true}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetSOL, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples != 3 {
		t.Errorf("samples: got %d, want 3", res.Samples)
	}
	wantProb := 2.0 / 3.0 * 100
	if res.Probability < wantProb-0.01 || res.Probability > wantProb+0.01 {
		t.Errorf("probability: got %v, want %v", res.Probability, wantProb)
	}
	if res.EstimatedMinMinutes != 2 || res.EstimatedMaxMinutes != 2 {
		t.Errorf("estimates: got %d/%d, want 2/2", res.EstimatedMinMinutes, res.EstimatedMaxMinutes)
	}
	if res.TargetRate != 105 {
		t.Errorf("targetRate: got %v, want 105", res.TargetRate)
	}
}

func TestPredict_DownwardUsesLows(t *testing.T) {
	// Closes fall 103→100; lows are close-0.5. Delta -2: entry 103 reaches
	// 101 when a low ≤ 101 appears (close 101, low 100.5, t+2m).
	src := &fakeSource{candles: minuteCandles(103, 102, 101, 100), price: 100, priceOK: true}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetBTC, -2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Probability == 0 {
		t.Fatal("expected downward hits")
	}
	if res.EstimatedMinMinutes != 2 {
		t.Errorf("min estimate: got %d, want 2", res.EstimatedMinMinutes)
	}
}

func TestPredict_CurrentRateFallsBackToLastClose(t *testing.T) {
	src := &fakeSource{candles: minuteCandles(100, 101), priceOK: false}
	p := New(src, nil, nil)

	res, err := p.Predict(context.Background(), model.AssetBTC, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.CurrentRate != 101 {
		t.Errorf("currentRate: got %v, want last close 101", res.CurrentRate)
	}
}

func TestPredict_ArchiveFallback(t *testing.T) {
	// Exchange returns a short series; the archive holds a longer one.
	src := &fakeSource{candles: minuteCandles(100, 101), priceOK: false}
	arch := &fakeArchive{candles: minuteCandles(100, 101, 102, 103, 104, 105)}
	p := New(src, arch, nil)

	res, err := p.Predict(context.Background(), model.AssetXAU, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples != 6 {
		t.Errorf("expected archive history to be used: samples=%d, want 6", res.Samples)
	}
}
