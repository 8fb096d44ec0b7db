package ringbuf

import (
	"testing"

	"marketpulse/internal/model"
)

func candleAt(ts int64, close float64) model.Candle {
	return model.Candle{Time: ts, Open: close, High: close, Low: close, Close: close}
}

func TestAppendAndSnapshot(t *testing.T) {
	w := New(4)
	for i := int64(0); i < 3; i++ {
		w.Append(candleAt(i*60, float64(100+i)))
	}
	if w.Len() != 3 {
		t.Fatalf("len: got %d, want 3", w.Len())
	}
	snap := w.Snapshot()
	if snap[0].Time != 0 || snap[2].Time != 120 {
		t.Errorf("snapshot order wrong: %+v", snap)
	}
}

func TestSameTimeReplacesLast(t *testing.T) {
	w := New(4)
	w.Append(candleAt(60, 100))
	w.Append(candleAt(60, 105)) // open bar updating
	if w.Len() != 1 {
		t.Fatalf("len: got %d, want 1", w.Len())
	}
	last, ok := w.Last()
	if !ok || last.Close != 105 {
		t.Errorf("last: got %+v ok=%v, want close 105", last, ok)
	}
}

func TestEvictionKeepsNewest(t *testing.T) {
	w := New(3)
	for i := int64(0); i < 5; i++ {
		w.Append(candleAt(i*60, float64(i)))
	}
	if w.Len() != 3 {
		t.Fatalf("len: got %d, want 3", w.Len())
	}
	snap := w.Snapshot()
	want := []int64{120, 180, 240}
	for i, ts := range want {
		if snap[i].Time != ts {
			t.Errorf("snap[%d].Time: got %d, want %d", i, snap[i].Time, ts)
		}
	}
}

func TestWraparoundReplacement(t *testing.T) {
	w := New(2)
	w.Append(candleAt(0, 1))
	w.Append(candleAt(60, 2))
	w.Append(candleAt(120, 3)) // evicts ts=0
	w.Append(candleAt(120, 4)) // replaces ts=120 in place
	snap := w.Snapshot()
	if len(snap) != 2 || snap[0].Time != 60 || snap[1].Close != 4 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestEmptyLast(t *testing.T) {
	w := New(2)
	if _, ok := w.Last(); ok {
		t.Error("expected no last candle on empty window")
	}
	if got := len(w.Snapshot()); got != 0 {
		t.Errorf("empty snapshot len: got %d", got)
	}
}
