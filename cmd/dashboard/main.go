package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"MarketPulse/internal/config"
	"MarketPulse/internal/gateway"
	"MarketPulse/internal/logging"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/refresh"
	"MarketPulse/internal/server"
	"MarketPulse/internal/session"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	logger, err := logging.New(os.Getenv("MARKETPULSE_DEBUG") == "true")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger.Infow("MarketPulse starting", "addr", cfg.Server.Addr, "symbol", cfg.DataSource.Symbol)

	// Init fetcher
	var fetcher gateway.Fetcher
	if cfg.DataSource.UseMock {
		fetcher = &gateway.MockFetcher{Price: 100}
	} else {
		fetcher = gateway.NewYahooFetcher(cfg.Proxy, logger.Named("gateway"))
	}
	fetcher = gateway.NewCachedFetcher(fetcher, time.Duration(cfg.DataSource.CacheTTLSec)*time.Second)
	logger.Infow("data source ready", "source", fetcher.Name())

	// Init session
	sess, err := session.New(cfg.Session.StateFile, session.Controls{
		Symbol:      cfg.DataSource.Symbol,
		IntervalSec: cfg.Refresh.IntervalSec,
		AutoRefresh: cfg.Refresh.AutoRefresh,
	}, logger.Named("session"))
	if err != nil {
		logger.Fatalw("init session", "error", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Named("recorder"))
		if err != nil {
			logger.Warnw("init sqlite recorder failed, using noop", "error", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Named("notifier"))

	// Metrics and websocket hub
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	hub := server.NewHub(m, logger.Named("ws"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Refresh controller and housekeeping
	ctrl := refresh.NewController(fetcher, sess, rec, tn, hub, m, logger.Named("refresh"))
	hk := refresh.NewHousekeeping(rec, ctrl, cfg.Retention.Days, logger.Named("housekeeping"))
	if err := hk.Register(cfg.Retention.Cron); err != nil {
		logger.Fatalw("register cron tasks", "error", err)
	}
	hk.Start()
	defer hk.Stop()

	go ctrl.Run(ctx)

	// Start Telegram polling
	go tn.StartPolling(ctx, ctrl.HandleCommand)

	// HTTP server
	srv := server.New(cfg.Server.Addr, sess, ctrl, hub, registry, cfg.DataSource.Symbols, logger.Named("http"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatalw("http server", "error", err)
		}
	}()
	logger.Infow("MarketPulse is running", "addr", cfg.Server.Addr)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown", "error", err)
	}
	logger.Info("MarketPulse stopped")
}
