package model

import (
	"encoding/json"
	"time"
)

// Candle is one OHLCV bar. Time is the bucket open time in unix seconds;
// within one (asset, interval) series times are unique and ascending.
type Candle struct {
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OpenedAt returns the candle open time as a time.Time (UTC).
func (c Candle) OpenedAt() time.Time {
	return time.Unix(c.Time, 0).UTC()
}

// Equal reports whether two candles carry identical values.
// Used by the streaming hub to suppress no-change pushes.
func (c Candle) Equal(o Candle) bool {
	return c.Time == o.Time &&
		c.Open == o.Open && c.High == o.High &&
		c.Low == o.Low && c.Close == o.Close &&
		c.Volume == o.Volume
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Interval is a candle granularity accepted by the exchange adapter.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Valid reports whether i is a supported interval.
func (i Interval) Valid() bool {
	switch i {
	case Interval1m, Interval5m, Interval15m, Interval1h, Interval4h, Interval1d:
		return true
	}
	return false
}

// ParseInterval validates a raw timeframe string.
func ParseInterval(s string) (Interval, bool) {
	i := Interval(s)
	return i, i.Valid()
}

// Duration returns the span of one candle at this interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	}
	return time.Minute
}

// PollEvery returns how often a live stream for this interval should poll
// the exchange. Shorter timeframes poll more frequently.
func (i Interval) PollEvery() time.Duration {
	switch i {
	case Interval1m:
		return 2 * time.Second
	case Interval5m:
		return 5 * time.Second
	case Interval15m:
		return 10 * time.Second
	case Interval1h:
		return 15 * time.Second
	case Interval4h:
		return 30 * time.Second
	case Interval1d:
		return time.Minute
	}
	return 5 * time.Second
}
