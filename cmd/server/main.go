package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-trader/internal/config"
	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
	"signal-trader/internal/server"
	"signal-trader/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	compressOldJournals(ctx, cfg)

	gw := initializeGateway(ctx, cfg)
	gen, err := initializeGenerator(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build signal generator", err)
		os.Exit(1)
	}
	loop := initializeLoop(cfg, gw, gen)

	metricsSrv := metrics.Serve(cfg.Server.MetricsAddr)
	logger.Info(ctx, "Metrics listening", "addr", cfg.Server.MetricsAddr)

	api := server.New(gw, gen, loop, cfg.Server.CORSOrigin)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.Handler()}

	go func() {
		logger.Info(ctx, "API listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "API server failed", err)
			cancel()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case <-ctx.Done():
	}

	loop.Stop(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "API shutdown failed", "error", err)
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
