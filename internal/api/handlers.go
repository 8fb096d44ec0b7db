package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
)

const (
	defaultCandleLimit    = 200
	indicatorCandleLimit  = 500
	defaultOrderBookDepth = 20
)

// assetParam parses the mandatory asset query parameter.
func assetParam(r *http.Request) (model.Asset, bool) {
	return model.ParseAsset(r.URL.Query().Get("asset"))
}

// intervalParam parses the timeframe query parameter, defaulting to 1m.
func intervalParam(r *http.Request) (model.Interval, bool) {
	raw := r.URL.Query().Get("timeframe")
	if raw == "" {
		return model.Interval1m, true
	}
	return model.ParseInterval(raw)
}

func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// handleMarket serves 24h snapshots: one asset when ?asset= is given,
// otherwise all of them (absent assets are simply omitted). Snapshots
// pass through the shared Redis quote cache when it is configured.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("asset")
	if raw != "" {
		asset, ok := model.ParseAsset(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown asset")
			return
		}
		snap, ok := s.marketSnapshot(r, asset)
		if !ok {
			writeError(w, http.StatusBadGateway, "market data unavailable")
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	out := make(map[model.Asset]*model.MarketSnapshot)
	for _, asset := range model.Assets() {
		if snap, ok := s.marketSnapshot(r, asset); ok {
			out[asset] = snap
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) marketSnapshot(r *http.Request, asset model.Asset) (*model.MarketSnapshot, bool) {
	if snap, ok := s.quotes.GetSnapshot(r.Context(), asset); ok {
		return snap, true
	}
	snap, ok := s.exchange.Get24hStats(r.Context(), asset)
	if !ok {
		return nil, false
	}
	s.quotes.SetSnapshot(r.Context(), snap)
	return snap, true
}

// handleCandles serves raw history. Upstream absence yields an empty
// array, matching the adapter's absence contract.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset")
		return
	}
	interval, ok := intervalParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown timeframe")
		return
	}
	candles := s.exchange.GetCandles(r.Context(), asset, interval, limitParam(r, defaultCandleLimit))
	if candles == nil {
		candles = []model.Candle{}
	}
	writeJSON(w, http.StatusOK, candles)
}

type indicatorResponse struct {
	Asset      model.Asset               `json:"asset"`
	Timeframe  model.Interval            `json:"timeframe"`
	Indicators model.TechnicalIndicators `json:"indicators"`
	Patterns   []model.PatternDetection  `json:"patterns"`
}

// handleIndicators serves computed indicators through the memoization
// cache: a hit inside the TTL returns the stored value byte-for-byte, a
// miss fetches fresh candles and recomputes.
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset")
		return
	}
	interval, ok := intervalParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown timeframe")
		return
	}

	ind, patterns, hit := s.cache.Get(asset, interval)
	if hit {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
	} else {
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
		candles := s.exchange.GetCandles(r.Context(), asset, interval, indicatorCandleLimit)
		ind, patterns = indicator.Evaluate(candles)
		s.cache.Put(asset, interval, ind, patterns)
	}

	if patterns == nil {
		patterns = []model.PatternDetection{}
	}
	writeJSON(w, http.StatusOK, indicatorResponse{
		Asset:      asset,
		Timeframe:  interval,
		Indicators: ind,
		Patterns:   patterns,
	})
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset")
		return
	}
	depth := limitParam(r, defaultOrderBookDepth)
	book, ok := s.exchange.GetOrderBook(r.Context(), asset, depth)
	if !ok {
		writeError(w, http.StatusBadGateway, "order book unavailable")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

type predictRequest struct {
	Asset           string  `json:"asset"`
	TargetDelta     float64 `json:"targetDelta"`
	LookbackMinutes int     `json:"lookbackMinutes"`
}

// handlePredict runs the time-to-profit scan. This is the one endpoint
// that reports failures as an explicit error payload.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	asset, ok := model.ParseAsset(req.Asset)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset")
		return
	}
	result, err := s.predictor.Predict(r.Context(), asset, req.TargetDelta, req.LookbackMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
