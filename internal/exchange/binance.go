// Package exchange pulls spot prices, 24h stats, candle history and
// order-book depth from the Binance public REST API.
//
// Failure policy: every upstream failure (network, bad payload) is logged
// and absorbed here — callers get an explicit ok=false or an empty candle
// slice, never an error. Unmapped assets short-circuit the same way
// without touching the network. There is no retry or backoff; callers
// tolerate transient absence.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
)

const defaultBaseURL = "https://api.binance.com"

// Client is the Binance REST adapter. Zero value is not usable; construct
// with New.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Binance endpoint (used by tests with httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMetrics attaches Prometheus counters for upstream calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Binance adapter.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 0}, // no per-call timeout; a hung call stalls only its caller
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) countReq(endpoint string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint).Inc()
	}
}

func (c *Client) countErr(endpoint string) {
	if c.metrics != nil {
		c.metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
	}
}

// getJSON issues one GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	c.countReq(endpoint)

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.countErr(endpoint)
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.countErr(endpoint)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.countErr(endpoint)
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.countErr(endpoint)
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// GetPrice returns the spot price for one asset. ok is false when the
// asset is unmapped or the upstream call fails.
func (c *Client) GetPrice(ctx context.Context, asset model.Asset) (float64, bool) {
	symbol, mapped := Symbol(asset)
	if !mapped {
		return 0, false
	}

	var body struct {
		Price string `json:"price"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/v3/ticker/price", params, &body); err != nil {
		log.Printf("[exchange] price fetch failed for %s: %v", asset, err)
		return 0, false
	}
	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		log.Printf("[exchange] bad price payload for %s: %v", asset, err)
		return 0, false
	}
	return price, true
}

// Get24hStats returns the rolling 24h aggregate statistics for one asset.
func (c *Client) Get24hStats(ctx context.Context, asset model.Asset) (*model.MarketSnapshot, bool) {
	symbol, mapped := Symbol(asset)
	if !mapped {
		return nil, false
	}

	var body struct {
		LastPrice          string `json:"lastPrice"`
		PriceChange        string `json:"priceChange"`
		PriceChangePercent string `json:"priceChangePercent"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		Volume             string `json:"volume"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/v3/ticker/24hr", params, &body); err != nil {
		log.Printf("[exchange] 24h stats fetch failed for %s: %v", asset, err)
		return nil, false
	}

	snap := &model.MarketSnapshot{Asset: asset, Source: "binance"}
	fields := []struct {
		raw string
		dst *float64
	}{
		{body.LastPrice, &snap.Price},
		{body.PriceChange, &snap.Change24h},
		{body.PriceChangePercent, &snap.ChangePercent24h},
		{body.HighPrice, &snap.High24h},
		{body.LowPrice, &snap.Low24h},
		{body.Volume, &snap.Volume24h},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			log.Printf("[exchange] bad 24h payload for %s: %v", asset, err)
			return nil, false
		}
		*f.dst = v
	}
	return snap, true
}

// GetCandles returns up to limit candles for one (asset, interval),
// ascending by time, most-recent last. The returned slice is empty — not
// an error — when the asset is unmapped or the upstream call fails.
func (c *Client) GetCandles(ctx context.Context, asset model.Asset, interval model.Interval, limit int) []model.Candle {
	symbol, mapped := Symbol(asset)
	if !mapped || !interval.Valid() {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000 // Binance hard cap per request
	}

	// Klines arrive as mixed-type arrays:
	// [openTimeMs, "open", "high", "low", "close", "volume", closeTimeMs, ...]
	var rows [][]interface{}
	params := url.Values{
		"symbol":   {symbol},
		"interval": {string(interval)},
		"limit":    {strconv.Itoa(limit)},
	}
	if err := c.getJSON(ctx, "/api/v3/klines", params, &rows); err != nil {
		log.Printf("[exchange] klines fetch failed for %s %s: %v", asset, interval, err)
		return nil
	}

	candles := make([]model.Candle, 0, len(rows))
	var lastTime int64
	for _, row := range rows {
		candle, ok := parseKlineRow(row)
		if !ok {
			log.Printf("[exchange] skipping malformed kline row for %s %s", asset, interval)
			continue
		}
		// Enforce strictly increasing, unique times within the series.
		if candle.Time <= lastTime && lastTime != 0 {
			continue
		}
		lastTime = candle.Time
		candles = append(candles, candle)
	}
	return candles
}

// parseKlineRow converts one raw kline array into a Candle.
func parseKlineRow(row []interface{}) (model.Candle, bool) {
	if len(row) < 6 {
		return model.Candle{}, false
	}
	openTimeMs, ok := row[0].(float64)
	if !ok {
		return model.Candle{}, false
	}
	vals := [5]float64{}
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return model.Candle{}, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Candle{}, false
		}
		vals[i-1] = v
	}
	return model.Candle{
		Time:   int64(openTimeMs) / 1000,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}

// GetOrderBook returns up to depth levels per side, best price first,
// in the order received from upstream.
func (c *Client) GetOrderBook(ctx context.Context, asset model.Asset, depth int) (*model.OrderBook, bool) {
	symbol, mapped := Symbol(asset)
	if !mapped {
		return nil, false
	}
	if depth <= 0 {
		depth = 20
	}
	if depth > 100 {
		depth = 100
	}

	var body struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	params := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(depth)},
	}
	if err := c.getJSON(ctx, "/api/v3/depth", params, &body); err != nil {
		log.Printf("[exchange] depth fetch failed for %s: %v", asset, err)
		return nil, false
	}

	book := &model.OrderBook{
		Bids: parseLevels(body.Bids),
		Asks: parseLevels(body.Asks),
	}
	return book, true
}

func parseLevels(raw [][2]string) []model.OrderBookLevel {
	levels := make([]model.OrderBookLevel, 0, len(raw))
	for _, pair := range raw {
		price, err1 := strconv.ParseFloat(pair[0], 64)
		size, err2 := strconv.ParseFloat(pair[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, model.OrderBookLevel{Price: price, Size: size})
	}
	return levels
}
