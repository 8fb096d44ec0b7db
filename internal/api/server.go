// Package api exposes the dashboard's HTTP surface: REST endpoints for
// market data, indicators and predictions, the WebSocket upgrade, and
// operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"marketpulse/internal/cache"
	"marketpulse/internal/hub"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	redisstore "marketpulse/internal/store/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange is the upstream surface the handlers consume; satisfied by
// the Binance adapter.
type Exchange interface {
	Get24hStats(ctx context.Context, asset model.Asset) (*model.MarketSnapshot, bool)
	GetCandles(ctx context.Context, asset model.Asset, interval model.Interval, limit int) []model.Candle
	GetOrderBook(ctx context.Context, asset model.Asset, depth int) (*model.OrderBook, bool)
}

// Predictor runs the time-to-profit scan.
type Predictor interface {
	Predict(ctx context.Context, asset model.Asset, targetDelta float64, lookbackMinutes int) (*model.TimeToProfitResult, error)
}

// Server wires the pipeline components behind HTTP handlers.
type Server struct {
	exchange  Exchange
	cache     *cache.Cache
	hub       *hub.Hub
	predictor Predictor
	quotes    *redisstore.QuoteCache // nil-safe, may be disabled
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
}

// NewServer builds the API server. quotes and gatherer may be nil.
func NewServer(ex Exchange, c *cache.Cache, h *hub.Hub, p Predictor, quotes *redisstore.QuoteCache, m *metrics.Metrics, g prometheus.Gatherer) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		exchange:  ex,
		cache:     c,
		hub:       h,
		predictor: p,
		quotes:    quotes,
		metrics:   m,
		gatherer:  g,
	}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.hub.ServeWS)

	mux.HandleFunc("/api/market", s.withCORS(s.handleMarket))
	mux.HandleFunc("/api/candles", s.withCORS(s.handleCandles))
	mux.HandleFunc("/api/indicators", s.withCORS(s.handleIndicators))
	mux.HandleFunc("/api/orderbook", s.withCORS(s.handleOrderBook))
	mux.HandleFunc("/api/predict", s.withCORS(s.handlePredict))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return mux
}

// setCORS mirrors the permissive headers the dashboard frontend needs.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
