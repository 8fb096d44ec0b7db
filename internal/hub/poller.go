package hub

import (
	"context"
	"time"

	"marketpulse/internal/model"
	"marketpulse/internal/store/sqlite"
)

// runPoller is the per-stream background task. It waits for the initial
// history, then polls the exchange at the timeframe's cadence until the
// stream is cancelled.
func (h *Hub) runPoller(ctx context.Context, s *stream) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.key.Interval.PollEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pollOnce(ctx, s)
		}
	}
}

// pollOnce fetches the newest candles for the stream and broadcasts only
// what changed: bars newer than the last-sent marker, or a new value for
// the still-open bar. An unchanged poll sends nothing. Results arriving
// after the last subscriber left are discarded.
func (h *Hub) pollOnce(ctx context.Context, s *stream) {
	fresh := h.source.GetCandles(ctx, s.key.Asset, s.key.Interval, pollFetch)
	if ctx.Err() != nil || len(fresh) == 0 {
		return
	}

	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}

	last, haveLast := s.window.Last()
	var push []model.Candle
	for _, c := range fresh {
		switch {
		case c.Time > s.lastSent:
			push = append(push, c)
		case c.Time == s.lastSent && haveLast && !last.Equal(c):
			push = append(push, c)
		}
	}
	if len(push) == 0 {
		s.mu.Unlock()
		return
	}

	for _, c := range push {
		s.window.Append(c)
	}
	s.lastSent = push[len(push)-1].Time

	targets := make([]*Client, 0, len(s.subscribers))
	for c := range s.subscribers {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	envelope := encodePush(s.key.Asset, push)
	for _, c := range targets {
		c.enqueue(envelope)
	}
	if h.metrics != nil {
		h.metrics.PushesTotal.Inc()
	}

	h.archiveClosed(s.key, push)
}

// archiveClosed forwards bars that can no longer change to the SQLite
// writer. The newest pushed bar is the open one and is skipped; it gets
// archived once a later bar supersedes it.
func (h *Hub) archiveClosed(key Key, push []model.Candle) {
	if h.archive == nil || len(push) < 2 {
		return
	}
	for _, c := range push[:len(push)-1] {
		rec := sqlite.Record{Asset: key.Asset, Interval: key.Interval, Candle: c}
		select {
		case h.archive <- rec:
			if h.metrics != nil {
				h.metrics.ArchiveWrites.Inc()
			}
		default:
			// Writer backlogged; dropping a bar is preferable to
			// stalling the poll loop.
		}
	}
}
