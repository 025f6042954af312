package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/config"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/emit"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/feed"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/httpapi"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/pipeline"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/quality"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/sink"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("exporter_starting",
		"stream_id", cfg.StreamID,
		"sink_root", cfg.SinkRoot,
		"redis_url", cfg.RedisURL,
		"stream_key", cfg.StreamKey,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, err := sink.NewRouter(cfg.SinkRoot, logger)
	if err != nil {
		logger.Error("failed to create sink router", "error", err)
		os.Exit(1)
	}

	metrics := quality.NewMetrics()
	tracker := emit.NewTracker()
	gate := quality.NewGate(cfg.Thresholds(), cfg.Readiness(), tracker, sinks, metrics, logger)

	src := source.NewMemorySource(cfg.MaxTSEntries * 4)
	provider := source.NewMemoryProvider()

	pipe := pipeline.New(cfg.Pipeline(), src, provider, tracker, gate, sinks, logger)

	logger.Info("pipeline_initialized")

	// Prometheus endpoint.
	go func() {
		addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics_server_starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	// Operational HTTP surface.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      httpapi.NewRouter(gate, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http_server_listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http_server_failed", "error", err)
		}
	}()

	hostname, _ := os.Hostname()
	consumer, err := feed.New(cfg.Feed(fmt.Sprintf("exporter-%s", hostname)), src, pipe, logger)
	if err != nil {
		logger.Error("failed to create feed consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	errChan := make(chan error, 1)
	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	logger.Info("exporter_running", "status", "healthy")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		cancel()
	case err := <-errChan:
		logger.Error("feed_error", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}

	logger.Info("exporter_stopped")
}
