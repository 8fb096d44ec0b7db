package indicator

import (
	"testing"

	"marketpulse/internal/model"
)

func TestDetectEngulfing(t *testing.T) {
	base := flatCandles(10, 100)

	t.Run("bullish", func(t *testing.T) {
		candles := append(append([]model.Candle{}, base...),
			mkCandle(10, 102, 102.5, 99.5, 100), // red
			mkCandle(11, 99.8, 103, 99.5, 102.5), // green, engulfs prior body
		)
		got := detectEngulfing(candles)
		if len(got) != 1 || got[0].Name != "bullish_engulfing" {
			t.Fatalf("expected bullish_engulfing, got %+v", got)
		}
		if got[0].Confidence <= 0 || got[0].Confidence > 100 {
			t.Errorf("confidence out of range: %v", got[0].Confidence)
		}
	})

	t.Run("bearish", func(t *testing.T) {
		candles := append(append([]model.Candle{}, base...),
			mkCandle(10, 100, 102.5, 99.5, 102), // green
			mkCandle(11, 102.2, 102.5, 99, 99.5), // red, engulfs prior body
		)
		got := detectEngulfing(candles)
		if len(got) != 1 || got[0].Name != "bearish_engulfing" {
			t.Fatalf("expected bearish_engulfing, got %+v", got)
		}
	})

	t.Run("none_on_flat", func(t *testing.T) {
		if got := detectEngulfing(base); len(got) != 0 {
			t.Errorf("expected no detection, got %+v", got)
		}
	})
}

func TestDetectSupportResistance(t *testing.T) {
	// Lows repeatedly touch 100, highs repeatedly touch 120, close at 110.
	candles := make([]model.Candle, 40)
	for i := range candles {
		candles[i] = mkCandle(i, 108, 120, 100, 110)
	}
	got := DetectSupportResistance(candles)

	var haveSupport, haveResistance bool
	for _, p := range got {
		switch p.Name {
		case "support_level":
			haveSupport = true
			if p.PredictedTarget == nil || *p.PredictedTarget >= 110 {
				t.Errorf("support level should sit below the close: %+v", p)
			}
		case "resistance_level":
			haveResistance = true
			if p.PredictedTarget == nil || *p.PredictedTarget <= 110 {
				t.Errorf("resistance level should sit above the close: %+v", p)
			}
		}
		if p.Confidence > 90 {
			t.Errorf("confidence capped at 90, got %v", p.Confidence)
		}
	}
	if !haveSupport || !haveResistance {
		t.Errorf("expected both support and resistance, got %+v", got)
	}
}

func TestDetectDoubleTop(t *testing.T) {
	// Two matching peaks at ~120 with a trough at 100 between them.
	candles := make([]model.Candle, 40)
	for i := range candles {
		price := 105.0
		switch {
		case i == 10:
			price = 120
		case i == 30:
			price = 119.9
		case i == 20:
			price = 100
		}
		candles[i] = mkCandle(i, price-1, price, price-2, price-0.5)
	}
	got := detectDoubleExtremes(candles)

	var top *model.PatternDetection
	for i := range got {
		if got[i].Name == "double_top" {
			top = &got[i]
		}
	}
	if top == nil {
		t.Fatalf("expected double_top, got %+v", got)
	}
	if top.PredictedTarget == nil || *top.PredictedTarget >= 100 {
		t.Errorf("measured-move target should sit below the trough: %+v", top)
	}
}

func TestDetectDivergence_Bullish(t *testing.T) {
	// Steep zigzag decline, then a shallow one: price keeps setting lower
	// lows while RSI recovers — the classic bullish divergence setup.
	candles := make([]model.Candle, 0, 48)
	price := 200.0
	for i := 0; i < 48; i++ {
		if i%2 == 0 {
			if i < 24 {
				price -= 3.0
			} else {
				price -= 0.6
			}
		} else {
			price += 0.5
		}
		candles = append(candles, mkCandle(i, price+0.1, price+0.1, price-0.1, price))
	}

	got := DetectDivergence(candles)
	var bullish bool
	for _, p := range got {
		if p.Name == "bullish_divergence" {
			bullish = true
		}
	}
	if !bullish {
		t.Errorf("expected bullish_divergence, got %+v", got)
	}
}

func TestDetectors_EmptyAndShortInput(t *testing.T) {
	for _, d := range defaultDetectors {
		if got := d(nil); len(got) != 0 {
			t.Errorf("detector emitted on nil input: %+v", got)
		}
		if got := d(flatCandles(3, 100)); len(got) != 0 {
			t.Errorf("detector emitted on 3-candle input: %+v", got)
		}
	}
}
