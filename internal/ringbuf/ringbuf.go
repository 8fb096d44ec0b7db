// Package ringbuf provides a bounded window of recent candles for one
// live stream. Appending past capacity evicts the oldest bar, so a
// long-running stream holds a fixed amount of memory.
package ringbuf

import "marketpulse/internal/model"

// Window keeps the most recent candles of one series in time order.
// Not safe for concurrent use; callers hold their own lock.
type Window struct {
	buf   []model.Candle
	start int
	n     int
}

// New creates a window holding up to capacity candles. Minimum capacity is 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]model.Candle, capacity)}
}

// Append adds a candle. A candle carrying the same open time as the
// current last bar replaces it in place (the still-open bar updating);
// otherwise the candle is appended, evicting the oldest when full.
func (w *Window) Append(c model.Candle) {
	if w.n > 0 {
		lastIdx := (w.start + w.n - 1) % len(w.buf)
		if w.buf[lastIdx].Time == c.Time {
			w.buf[lastIdx] = c
			return
		}
	}
	if w.n == len(w.buf) {
		w.buf[w.start] = c
		w.start = (w.start + 1) % len(w.buf)
		return
	}
	w.buf[(w.start+w.n)%len(w.buf)] = c
	w.n++
}

// Last returns the most recent candle, if any.
func (w *Window) Last() (model.Candle, bool) {
	if w.n == 0 {
		return model.Candle{}, false
	}
	return w.buf[(w.start+w.n-1)%len(w.buf)], true
}

// Snapshot returns the window contents oldest-first as a fresh slice.
func (w *Window) Snapshot() []model.Candle {
	out := make([]model.Candle, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Len returns the number of candles currently held.
func (w *Window) Len() int { return w.n }
