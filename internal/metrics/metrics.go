package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the market-data pipeline.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec // labels: endpoint
	UpstreamErrors   *prometheus.CounterVec // labels: endpoint

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	ActivePollers  prometheus.Gauge
	WSClients      prometheus.Gauge
	PushesTotal    prometheus.Counter
	InitialBatches prometheus.Counter

	PredictDur    prometheus.Histogram
	ArchiveWrites prometheus.Counter
}

// New registers and returns all metrics on the given registerer.
// main passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_upstream_requests_total",
			Help: "Exchange REST requests issued, by endpoint",
		}, []string{"endpoint"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_upstream_errors_total",
			Help: "Exchange REST requests that failed, by endpoint",
		}, []string{"endpoint"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_indicator_cache_hits_total",
			Help: "Indicator cache lookups served within the TTL window",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_indicator_cache_misses_total",
			Help: "Indicator cache lookups that required a recompute",
		}),
		ActivePollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_active_pollers",
			Help: "Background poll tasks currently running (one per subscribed key)",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		PushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_candle_pushes_total",
			Help: "Incremental candle pushes broadcast to subscribers",
		}),
		InitialBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_initial_batches_total",
			Help: "Initial history batches sent to new subscribers",
		}),
		PredictDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_predict_duration_seconds",
			Help:    "Time-to-profit scan latency",
			Buckets: prometheus.DefBuckets,
		}),
		ArchiveWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_archive_writes_total",
			Help: "Closed candles appended to the SQLite archive",
		}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamErrors,
		m.CacheHits,
		m.CacheMisses,
		m.ActivePollers,
		m.WSClients,
		m.PushesTotal,
		m.InitialBatches,
		m.PredictDur,
		m.ArchiveWrites,
	)

	return m
}
