package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"signal-trader/internal/config"
	"signal-trader/internal/gateway/alpaca"
	"signal-trader/internal/gateway/gatewayobs"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/market"
	"signal-trader/internal/signal"
	"signal-trader/internal/trace"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/trader"
)

// initializeSystem initializes environment, logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// compressOldJournals compresses old journal files if retention is configured.
func compressOldJournals(ctx context.Context, cfg *config.Config) {
	tradelog.SetDir(cfg.Journal.Dir)
	if cfg.Journal.RetentionDays <= 0 {
		return
	}
	if err := tradelog.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
	}
}

// initializeGateway builds the brokerage gateway with observability.
func initializeGateway(ctx context.Context, cfg *config.Config) interfaces.Gateway {
	gw := alpaca.New(alpaca.Params{
		Mode:           cfg.Gateway.Mode,
		BaseURL:        cfg.Gateway.BaseURL,
		APIKey:         os.Getenv(cfg.Gateway.KeyEnv),
		APISecret:      os.Getenv(cfg.Gateway.SecretEnv),
		TimeoutSeconds: cfg.Gateway.TimeoutSeconds,
		RequestsPerSec: cfg.Gateway.RequestsPerSec,
	})

	if cfg.Gateway.Mode == "PAPER" {
		logger.Warn(ctx, "Running in PAPER mode - orders will be simulated")
	}

	return gatewayobs.Wrap(gw)
}

// initializeGenerator builds the indicator source and signal generator.
func initializeGenerator(ctx context.Context, cfg *config.Config) (interfaces.SignalGenerator, error) {
	src := market.NewSyntheticSource(time.Duration(cfg.Signals.IndicatorBucketMin) * time.Minute)
	logger.Info(ctx, "Using synthetic indicator source",
		"bucket", src.Bucket().String(),
		"test_signals", !cfg.Signals.DisableTestSignals,
	)

	return signal.New(src, signal.Config{
		Oversold:      cfg.Signals.RSIOversold,
		Overbought:    cfg.Signals.RSIOverbought,
		MinConfidence: cfg.Automation.MinConfidence,
		SymbolDelay:   time.Duration(cfg.Signals.SymbolDelayMS) * time.Millisecond,
		TestSignals:   !cfg.Signals.DisableTestSignals,
	})
}

// initializeLoop builds the automated trading loop.
func initializeLoop(cfg *config.Config, gw interfaces.Gateway, gen interfaces.SignalGenerator) interfaces.Loop {
	return trader.New(gw, gen, trader.Params{
		Symbols:         cfg.Automation.Symbols,
		IntervalMinutes: cfg.Automation.IntervalMinutes,
		MaxPositionSize: cfg.Automation.MaxPositionSize,
		MinConfidence:   cfg.Automation.MinConfidence,
		AllowOverlap:    cfg.Automation.AllowOverlap,
		InterTradeDelay: time.Duration(cfg.Automation.InterTradeDelayMS) * time.Millisecond,
		SettleDelay:     time.Duration(cfg.Automation.SettleDelayMS) * time.Millisecond,
	})
}
