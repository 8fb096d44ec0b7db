package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"marketpulse/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(ts int64, close float64) Record {
	return Record{
		Asset:    model.AssetBTC,
		Interval: model.Interval1m,
		Candle:   model.Candle{Time: ts, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 5},
	}
}

func TestInsertAndRecent(t *testing.T) {
	s := newTestStore(t)

	var recs []Record
	for i := int64(0); i < 10; i++ {
		recs = append(recs, record(1700000000+i*60, 100+float64(i)))
	}
	if err := s.InsertBatch(recs); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), model.AssetBTC, model.Interval1m, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("len: got %d, want 5", len(got))
	}
	// The 5 newest bars, chronological order.
	if got[0].Time != 1700000000+5*60 || got[4].Time != 1700000000+9*60 {
		t.Errorf("range wrong: first=%d last=%d", got[0].Time, got[4].Time)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("not ascending at %d", i)
		}
	}
}

func TestUpsertReplacesSameBar(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertBatch([]Record{record(1700000000, 100)}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertBatch([]Record{record(1700000000, 105)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), model.AssetBTC, model.Interval1m, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len: got %d, want 1", len(got))
	}
	if got[0].Close != 105 {
		t.Errorf("close: got %v, want the replacement 105", got[0].Close)
	}
}

func TestRecentScopedToSeries(t *testing.T) {
	s := newTestStore(t)

	recs := []Record{
		record(1700000000, 100),
		{Asset: model.AssetETH, Interval: model.Interval1m, Candle: model.Candle{Time: 1700000000, Close: 3000}},
		{Asset: model.AssetBTC, Interval: model.Interval1h, Candle: model.Candle{Time: 1700000000, Close: 99}},
	}
	if err := s.InsertBatch(recs); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), model.AssetBTC, model.Interval1m, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Close != 100 {
		t.Errorf("series scoping broken: %+v", got)
	}
}

func TestRunFlushesOnClose(t *testing.T) {
	s := newTestStore(t)

	ch := make(chan Record, 8)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), ch)
		close(done)
	}()

	for i := int64(0); i < 3; i++ {
		ch <- record(1700000000+i*60, 100)
	}
	close(ch)
	<-done

	got, err := s.Recent(context.Background(), model.AssetBTC, model.Interval1m, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("flushed rows: got %d, want 3", len(got))
	}
}
