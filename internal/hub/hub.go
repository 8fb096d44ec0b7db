// Package hub runs the streaming side of the dashboard: WebSocket clients
// subscribe to (asset, timeframe, currency) keys, each key with at least
// one subscriber owns exactly one background poller, and every subscriber
// of a key receives the same pushes.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/ringbuf"
	"marketpulse/internal/store/sqlite"
)

const (
	// initialHistory is how many candles the first subscriber's batch holds.
	initialHistory = 200
	// pollFetch is how many recent candles each poll pulls for diffing.
	pollFetch = 3
)

// CandleSource supplies candle history; satisfied by the exchange adapter.
type CandleSource interface {
	GetCandles(ctx context.Context, asset model.Asset, interval model.Interval, limit int) []model.Candle
}

// Key identifies one polling stream.
type Key struct {
	Asset    model.Asset
	Interval model.Interval
	Currency string
}

func (k Key) String() string {
	return string(k.Asset) + ":" + string(k.Interval) + ":" + k.Currency
}

// stream is the per-key state: its subscriber set, the retained candle
// window, and the last-sent marker the poller diffs against.
type stream struct {
	key    Key
	cancel context.CancelFunc
	ready  chan struct{} // closed once the initial history is loaded

	mu          sync.Mutex
	subscribers map[*Client]bool
	window      *ringbuf.Window
	lastSent    int64 // open time of the newest candle ever pushed
}

// Hub owns the subscription registry. All refcount transitions happen
// under mu, so a key never runs two pollers and a subscribe racing the
// last unsubscribe is never dropped.
type Hub struct {
	source  CandleSource
	archive chan<- sqlite.Record // nil when the archive is disabled
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[*Client]bool
	streams map[Key]*stream
}

// New creates a hub. archive and m may be nil.
func New(source CandleSource, archive chan<- sqlite.Record, m *metrics.Metrics) *Hub {
	return &Hub{
		source:  source,
		archive: archive,
		metrics: m,
		clients: make(map[*Client]bool),
		streams: make(map[Key]*stream),
	}
}

type candlePush struct {
	Type  string         `json:"type"`
	Asset model.Asset    `json:"asset"`
	Data  []model.Candle `json:"data"`
}

func encodePush(asset model.Asset, data []model.Candle) []byte {
	b, _ := json.Marshal(candlePush{Type: "candle", Asset: asset, Data: data})
	return b
}

// Subscribe attaches c to the stream for key, creating the stream and its
// poller when c is the first subscriber. The caller receives the current
// history as an initial batch before any incremental push; for the first
// subscriber that means one synchronous exchange fetch, for later ones
// the retained window is reused without touching the exchange.
func (h *Hub) Subscribe(c *Client, key Key) {
	if !key.Asset.Valid() || !key.Interval.Valid() {
		return
	}

	h.mu.Lock()
	s, ok := h.streams[key]
	created := false
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		s = &stream{
			key:         key,
			cancel:      cancel,
			ready:       make(chan struct{}),
			subscribers: make(map[*Client]bool),
			window:      ringbuf.New(initialHistory),
		}
		h.streams[key] = s
		created = true
		go h.runPoller(ctx, s)
	}
	s.mu.Lock()
	s.subscribers[c] = true
	s.mu.Unlock()
	c.subs[key] = true
	h.mu.Unlock()

	if created {
		if h.metrics != nil {
			h.metrics.ActivePollers.Inc()
		}
		log.Printf("[hub] stream %s started", key)
		h.loadHistory(s)
	}

	<-s.ready

	s.mu.Lock()
	batch := s.window.Snapshot()
	s.mu.Unlock()
	c.enqueue(encodePush(key.Asset, batch))
	if h.metrics != nil {
		h.metrics.InitialBatches.Inc()
	}
}

// loadHistory performs the one historical fetch for a new stream and
// unblocks waiting subscribers. Runs outside the hub lock.
func (h *Hub) loadHistory(s *stream) {
	history := h.source.GetCandles(context.Background(), s.key.Asset, s.key.Interval, initialHistory)

	s.mu.Lock()
	for _, c := range history {
		s.window.Append(c)
	}
	if len(history) > 0 {
		s.lastSent = history[len(history)-1].Time
	}
	s.mu.Unlock()
	close(s.ready)
}

// Unsubscribe detaches c from key. When the last subscriber leaves, the
// poller is cancelled and the stream forgotten.
func (h *Hub) Unsubscribe(c *Client, key Key) {
	h.mu.Lock()
	h.dropLocked(c, key)
	delete(c.subs, key)
	h.mu.Unlock()
}

// dropLocked removes c from key's stream and reaps the stream at
// refcount zero. Caller holds h.mu.
func (h *Hub) dropLocked(c *Client, key Key) {
	s, ok := h.streams[key]
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.subscribers, c)
	remaining := len(s.subscribers)
	s.mu.Unlock()
	if remaining == 0 {
		s.cancel()
		delete(h.streams, key)
		if h.metrics != nil {
			h.metrics.ActivePollers.Dec()
		}
		log.Printf("[hub] stream %s stopped", key)
	}
}

// register adds a connected client to the hub.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSClients.Inc()
	}
	log.Printf("[hub] client %s connected (%d total)", c.id, count)
}

// removeClient tears down a closing connection: every subscription it
// holds is released as if unsubscribed explicitly.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for key := range c.subs {
		h.dropLocked(c, key)
	}
	c.subs = make(map[Key]bool)
	h.mu.Unlock()

	c.shutdown()
	if h.metrics != nil {
		h.metrics.WSClients.Dec()
	}
	log.Printf("[hub] client %s disconnected", c.id)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// StreamCount returns the number of active polling streams.
func (h *Hub) StreamCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams)
}
