package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/config"
	"marketpulse/internal/api"
	"marketpulse/internal/cache"
	"marketpulse/internal/exchange"
	"marketpulse/internal/hub"
	"marketpulse/internal/metrics"
	"marketpulse/internal/predict"
	redisstore "marketpulse/internal/store/redis"
	"marketpulse/internal/store/sqlite"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[server] starting...")

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(prometheus.DefaultRegisterer)

	ex := exchange.New(
		exchange.WithBaseURL(cfg.BinanceBaseURL),
		exchange.WithMetrics(m),
	)

	// Optional shared quote cache.
	var quotes *redisstore.QuoteCache
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[server] redis unreachable at %s, quote cache disabled: %v", cfg.RedisAddr, err)
		} else {
			log.Printf("[server] redis connected at %s", cfg.RedisAddr)
			quotes = redisstore.NewQuoteCache(rdb, 0)
		}
	}

	// Candle archive feeds the predictor with lookbacks the exchange
	// cannot cover in one request.
	var archive *sqlite.Store
	var records chan sqlite.Record
	if cfg.SQLitePath != "" {
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			log.Printf("[server] candle archive disabled: %v", err)
		} else {
			archive = st
			defer archive.Close()
			records = make(chan sqlite.Record, 1024)
			go archive.Run(ctx, records)
		}
	}

	indicatorCache := cache.New(cfg.CacheTTL, nil)
	streamHub := hub.New(ex, records, m)

	var predictor *predict.Predictor
	if archive != nil {
		predictor = predict.New(ex, archive, m)
	} else {
		predictor = predict.New(ex, nil, m)
	}

	srv := api.NewServer(ex, indicatorCache, streamHub, predictor, quotes, m, prometheus.DefaultGatherer)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	go func() {
		log.Printf("[server] listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("[server] shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
	cancel()
	log.Println("[server] stopped")
}
