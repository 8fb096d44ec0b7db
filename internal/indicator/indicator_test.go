package indicator

import (
	"math"
	"testing"

	"marketpulse/internal/model"
)

func mkCandle(i int, open, high, low, close float64) model.Candle {
	return model.Candle{
		Time:   1700000000 + int64(i)*60,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 100,
	}
}

func flatCandles(n int, price float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = mkCandle(i, price, price+1, price-1, price)
	}
	return out
}

func TestBollinger_InsufficientHistory(t *testing.T) {
	if bb := Bollinger(flatCandles(19, 100), 20, 2); bb != nil {
		t.Errorf("expected nil with 19 candles, got %+v", bb)
	}
}

func TestBollinger_MiddleIsSMA(t *testing.T) {
	candles := make([]model.Candle, 20)
	for i := range candles {
		price := 100.0 + float64(i)
		candles[i] = mkCandle(i, price, price, price, price)
	}
	bb := Bollinger(candles, 20, 2)
	if bb == nil {
		t.Fatal("expected bands")
	}
	// closes 100..119 → mean 109.5
	if math.Abs(bb.Middle-109.5) > 1e-9 {
		t.Errorf("middle: got %v, want 109.5", bb.Middle)
	}
	if bb.Upper <= bb.Middle || bb.Lower >= bb.Middle {
		t.Errorf("band ordering broken: %+v", bb)
	}
}

func TestPercentB_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		close float64
		want  float64
	}{
		{"at_middle", 100, 0.5},
		{"at_upper", 110, 1.0},
		{"at_lower", 90, 0.0},
		{"breakout_above", 120, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentB(tt.close, 110, 90)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentB(%v): got %v, want %v", tt.close, got, tt.want)
			}
		})
	}
}

func TestPercentB_DegenerateBand(t *testing.T) {
	if got := percentB(100, 100, 100); got != 0.5 {
		t.Errorf("zero-width band: got %v, want 0.5", got)
	}
}

// A last close placed exactly at the window mean must produce percentB 0.5.
func TestBollinger_CloseAtMiddle(t *testing.T) {
	candles := make([]model.Candle, 19)
	sum := 0.0
	for i := range candles {
		price := 95.0
		if i%2 == 1 {
			price = 105.0
		}
		candles[i] = mkCandle(i, price, price, price, price)
		sum += price
	}
	// Choosing x = sum/19 makes x equal to the mean of all 20 closes.
	x := sum / 19
	candles = append(candles, mkCandle(19, x, x, x, x))

	bb := Bollinger(candles, 20, 2)
	if bb == nil {
		t.Fatal("expected bands")
	}
	if math.Abs(bb.PercentB-0.5) > 1e-9 {
		t.Errorf("percentB: got %v, want 0.5", bb.PercentB)
	}
}

func TestRSISeries(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	up := rsiSeries(rising, 14)
	if len(up) != 16 {
		t.Fatalf("expected 16 RSI values, got %d", len(up))
	}
	if up[len(up)-1] != 100 {
		t.Errorf("monotonic rise: RSI got %v, want 100", up[len(up)-1])
	}

	down := rsiSeries(falling, 14)
	if down[len(down)-1] != 0 {
		t.Errorf("monotonic fall: RSI got %v, want 0", down[len(down)-1])
	}

	if got := rsiSeries(rising[:14], 14); got != nil {
		t.Errorf("expected nil for short series, got %d values", len(got))
	}
}

func TestStochRSI(t *testing.T) {
	if got := StochRSI(flatCandles(20, 100), 14, 14, 3); got != nil {
		t.Errorf("expected nil with too few candles, got %+v", got)
	}

	// Oscillating closes give RSI variation; fastK must stay in [0, 100].
	candles := make([]model.Candle, 60)
	for i := range candles {
		price := 100.0 + 5*math.Sin(float64(i)/3)
		candles[i] = mkCandle(i, price, price+1, price-1, price)
	}
	s := StochRSI(candles, 14, 14, 3)
	if s == nil {
		t.Fatal("expected a value")
	}
	if s.FastK < 0 || s.FastK > 100 {
		t.Errorf("fastK out of range: %v", s.FastK)
	}
	if s.FastD < 0 || s.FastD > 100 {
		t.Errorf("fastD out of range: %v", s.FastD)
	}
}

func TestAverageTrueRange(t *testing.T) {
	if got := AverageTrueRange(flatCandles(14, 100), 14); got != nil {
		t.Errorf("expected nil with 14 candles (need 15), got %+v", got)
	}

	// Constant candles: TR = high - low = 2 every bar.
	atr := AverageTrueRange(flatCandles(15, 100), 14)
	if atr == nil {
		t.Fatal("expected a value")
	}
	if math.Abs(atr.Value-2.0) > 1e-9 {
		t.Errorf("ATR: got %v, want 2.0", atr.Value)
	}
}

func TestTrueRange_GapHandling(t *testing.T) {
	// Gap up: prev close far below the bar's low.
	c := mkCandle(1, 110, 112, 109, 111)
	if got := trueRange(c, 100); math.Abs(got-12) > 1e-9 {
		t.Errorf("gap up TR: got %v, want 12", got)
	}
	// Gap down.
	c = mkCandle(1, 90, 92, 89, 91)
	if got := trueRange(c, 100); math.Abs(got-11) > 1e-9 {
		t.Errorf("gap down TR: got %v, want 11", got)
	}
}

func TestEvaluate_OmitsOnShortHistory(t *testing.T) {
	ind, _ := Evaluate(flatCandles(5, 100))
	if ind.BollingerBands != nil || ind.StochasticRSI != nil || ind.ATR != nil {
		t.Errorf("expected all sub-indicators omitted: %+v", ind)
	}
}

func TestEvaluate_FullHistory(t *testing.T) {
	candles := make([]model.Candle, 120)
	for i := range candles {
		price := 100.0 + 10*math.Sin(float64(i)/5)
		candles[i] = mkCandle(i, price, price+2, price-2, price+1)
	}
	ind, _ := Evaluate(candles)
	if ind.BollingerBands == nil {
		t.Error("expected bollinger bands")
	}
	if ind.StochasticRSI == nil {
		t.Error("expected stochastic RSI")
	}
	if ind.ATR == nil {
		t.Error("expected ATR")
	}
}
