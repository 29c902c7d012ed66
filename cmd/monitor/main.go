// cmd/monitor/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vitalsd/internal/api"
	"vitalsd/internal/cloud"
	"vitalsd/internal/config"
	"vitalsd/internal/logging"
	"vitalsd/internal/sensor"
	"vitalsd/internal/storage"
	"vitalsd/internal/trigger"
	"vitalsd/internal/vitals"
)

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "monitor")
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

	var (
		source   sensor.Source
		hardware *sensor.HardwareSource
	)
	if cfg.SensorSource == "hardware" {
		hardware = sensor.NewHardware(16)
		source = hardware
		logger.Info("using hardware sensor source; readings arrive via POST /ingest")
	} else {
		source = sensor.NewSimulated(cfg.SensorSeed)
	}

	thresholds := cfg.Thresholds()
	uploader := cloud.NewUploader(cfg.CloudEnabled, cfg.CloudURL, cfg.CloudAPIKey, logger)

	controller := trigger.New(store, logger, trigger.Config{
		Cooldown: cfg.ManualSaveCooldown,
		Interval: cfg.AutoSaveInterval,
		OnEvent: func(_ vitals.SaveEvent, r vitals.Reading) {
			uploader.UploadReading(r)
		},
		OnSummary: func(s vitals.DailySummary) {
			if s.SampleCount == 0 {
				logger.Info("interval summary: no readings in window")
				return
			}
			logger.Info("interval summary",
				zap.Float64("avg_heart_rate", *s.AvgHeartRate),
				zap.Float64("avg_spo2", *s.AvgSpO2),
				zap.Int("sample_count", s.SampleCount),
				zap.Int("alert_count", s.AlertCount))
			uploader.UploadSummary(s)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go controller.Run(ctx)

	// --- Control Server (manual save, hardware ingest) ---
	controlHandler := api.NewControlHandler(controller, hardware, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MonitorPort),
		Handler: api.SetupControlRouter(controlHandler),
	}
	go func() {
		logger.Info("starting control server", zap.Int("port", cfg.MonitorPort))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("control server", zap.Error(err))
		}
	}()

	// --- Tick Loop ---
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()

		startupSaved := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r, err := source.Next()
				if err != nil {
					if errors.Is(err, sensor.ErrSourceClosed) {
						return
					}
					logger.Warn("sensor read failed", zap.Error(err))
					continue
				}

				r.HeartRate = vitals.ClampHeartRate(r.HeartRate)
				r.SpO2 = vitals.ClampSpO2(r.SpO2)
				r.Status = thresholds.Classify(r.HeartRate, r.SpO2)
				controller.Observe(r)

				if r.Status == vitals.StatusAlert {
					logger.Warn("vitals out of range",
						zap.Int("heart_rate", r.HeartRate),
						zap.Int("spo2", r.SpO2))
				} else {
					logger.Debug("tick",
						zap.Int("heart_rate", r.HeartRate),
						zap.Int("spo2", r.SpO2))
				}

				if !startupSaved {
					controller.TriggerStartup()
					startupSaved = true
				}
			}
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("shutting down")

	source.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("control server shutdown", zap.Error(err))
	}

	// The store goes last: the loop and timers above are already stopped.
	if err := store.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
	logger.Info("monitor stopped")
}
