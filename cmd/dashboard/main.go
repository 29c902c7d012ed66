// cmd/dashboard/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vitalsd/internal/alerting"
	"vitalsd/internal/api"
	"vitalsd/internal/config"
	"vitalsd/internal/feed"
	"vitalsd/internal/logging"
	"vitalsd/internal/storage"
	"vitalsd/internal/websocket"
)

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	webDir := flag.String("webdir", "./web", "Path to the web assets directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "dashboard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Initialize Components ---
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}

	hub := websocket.NewHub(logger)
	alerter := alerting.NewAlerter(hub, logger)
	poller := feed.NewPoller(store, hub, alerter, cfg.Thresholds(), logger, cfg.TickInterval)

	queryHandler, err := api.NewQueryHandler(store, hub, *webDir, cfg.HistoryLimit, logger)
	if err != nil {
		logger.Fatal("build query handler", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run()
	go poller.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DashboardPort),
		Handler: api.SetupDashboardRouter(queryHandler),
	}
	go func() {
		logger.Info("starting dashboard server", zap.Int("port", cfg.DashboardPort))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("dashboard server", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("dashboard server shutdown", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
	logger.Info("dashboard stopped")
}
