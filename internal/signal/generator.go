package signal

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

const (
	// Base confidence for any non-HOLD decision; RSI depth and trend
	// confirmations add on top of it.
	baseConfidence = 0.6
	rsiWeight      = 0.3
	trendBoost     = 0.1

	// Test-signal override bucket. Shorter than the indicator bucket so a
	// stuck-HOLD symbol still exercises the execution path now and then.
	overrideBucket = 3 * time.Minute
)

// Config holds the generator's tunable parameters.
type Config struct {
	Oversold      float64
	Overbought    float64
	MinConfidence float64
	// SymbolDelay paces batch evaluation between symbols.
	SymbolDelay time.Duration
	// TestSignals enables the deterministic HOLD override. It only ever
	// takes effect when the indicator source is synthetic.
	TestSignals bool
}

// Generator maps (symbol, indicators) to a trading signal using RSI
// mean-reversion with moving-average confirmation. It never fails outward:
// any internal error degrades to a HOLD signal with confidence 0.
type Generator struct {
	mu            sync.RWMutex
	oversold      float64
	overbought    float64
	minConfidence float64

	src         interfaces.IndicatorSource
	limiter     *rate.Limiter
	testSignals bool
	now         func() time.Time
}

var _ interfaces.SignalGenerator = (*Generator)(nil)

func New(src interfaces.IndicatorSource, cfg Config) (*Generator, error) {
	if err := validateThresholds(cfg.Oversold, cfg.Overbought); err != nil {
		return nil, err
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be between 0-1, got %.2f", cfg.MinConfidence)
	}
	delay := cfg.SymbolDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Generator{
		oversold:      cfg.Oversold,
		overbought:    cfg.Overbought,
		minConfidence: cfg.MinConfidence,
		src:           src,
		limiter:       rate.NewLimiter(rate.Every(delay), 1),
		testSignals:   cfg.TestSignals,
		now:           time.Now,
	}, nil
}

func validateThresholds(oversold, overbought float64) error {
	if oversold < 0 || overbought > 100 {
		return fmt.Errorf("rsi thresholds must stay within 0-100, got [%.1f, %.1f]", oversold, overbought)
	}
	if oversold >= overbought {
		return fmt.Errorf("oversold threshold (%.1f) must be below overbought threshold (%.1f)", oversold, overbought)
	}
	return nil
}

// UpdateThresholds replaces the RSI thresholds. Takes effect on the next
// evaluation; in-flight signals are unaffected.
func (g *Generator) UpdateThresholds(oversold, overbought float64) error {
	if err := validateThresholds(oversold, overbought); err != nil {
		return err
	}
	g.mu.Lock()
	g.oversold = oversold
	g.overbought = overbought
	g.mu.Unlock()
	return nil
}

// SetMinConfidence replaces the execution confidence floor.
func (g *Generator) SetMinConfidence(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("min confidence must be between 0-1, got %.2f", v)
	}
	g.mu.Lock()
	g.minConfidence = v
	g.mu.Unlock()
	return nil
}

// Generate evaluates one symbol.
func (g *Generator) Generate(ctx context.Context, symbol string) types.Signal {
	now := g.now()

	g.mu.RLock()
	oversold, overbought, minConf := g.oversold, g.overbought, g.minConfidence
	g.mu.RUnlock()

	inds, err := g.src.Indicators(ctx, symbol, now)
	if err != nil {
		logger.ErrorWithErr(ctx, "Indicator fetch failed", err, "symbol", symbol)
		return types.Signal{
			Symbol:     symbol,
			Action:     types.ActionHold,
			Confidence: 0,
			Reason:     "indicator fetch failed: " + err.Error(),
			Timestamp:  now,
		}
	}

	action, confidence, reason := evaluate(inds, oversold, overbought)

	if action == types.ActionHold && g.testSignals && g.src.Synthetic() {
		if a, c, r, ok := holdOverride(symbol, now); ok {
			action, confidence, reason = a, c, r
		}
	}

	sig := types.Signal{
		Symbol:        symbol,
		Action:        action,
		Confidence:    confidence,
		Reason:        reason,
		Indicators:    inds,
		Timestamp:     now,
		ShouldExecute: confidence >= minConf,
	}
	logger.Decision(ctx, symbol, string(action), confidence, reason)
	return sig
}

// evaluate applies the RSI mean-reversion rule with trend confirmation.
func evaluate(inds types.Indicators, oversold, overbought float64) (types.Action, float64, string) {
	switch {
	case inds.RSI < oversold:
		strength := (oversold - inds.RSI) / oversold
		confidence := baseConfidence + rsiWeight*strength
		reason := fmt.Sprintf("RSI %.1f below oversold threshold %.0f", inds.RSI, oversold)
		if inds.Price > inds.SMA20 {
			confidence += trendBoost
			reason += "; price above SMA20"
		}
		if inds.SMA20 > inds.SMA50 {
			confidence += trendBoost
			reason += "; SMA20 above SMA50"
		}
		return types.ActionBuy, clamp01(confidence), reason

	case inds.RSI > overbought:
		strength := (inds.RSI - overbought) / (100 - overbought)
		confidence := baseConfidence + rsiWeight*strength
		reason := fmt.Sprintf("RSI %.1f above overbought threshold %.0f", inds.RSI, overbought)
		if inds.Price < inds.SMA20 {
			confidence += trendBoost
			reason += "; price below SMA20"
		}
		if inds.SMA20 < inds.SMA50 {
			confidence += trendBoost
			reason += "; SMA20 below SMA50"
		}
		return types.ActionSell, clamp01(confidence), reason

	default:
		reason := fmt.Sprintf("RSI %.1f in neutral band [%.0f, %.0f]", inds.RSI, oversold, overbought)
		return types.ActionHold, 0.5, reason
	}
}

// holdOverride occasionally promotes a HOLD to a low-confidence test signal
// so the execution path gets exercised under synthetic data. Keyed off a time
// bucket distinct from (and shorter than) the indicator bucket.
func holdOverride(symbol string, at time.Time) (types.Action, float64, string, bool) {
	bucketIdx := at.Unix() / int64(overrideBucket.Seconds())
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte("#test-signal#"))
	h.Write([]byte(strconv.FormatInt(bucketIdx, 10)))
	v := h.Sum64()

	if v%10 >= 3 { // ~30% of (symbol, bucket) pairs
		return "", 0, "", false
	}

	action := types.ActionBuy
	if v&1 == 1 {
		action = types.ActionSell
	}
	confidence := 0.5 + float64(v%31)/100 // [0.50, 0.80]
	reason := fmt.Sprintf("synthetic test signal (%s) injected on neutral RSI", action)
	return action, confidence, reason, true
}

// GenerateBatch evaluates symbols one at a time in input order, pacing
// between symbols to respect upstream rate limits. A per-symbol failure
// degrades to a HOLD signal for that symbol without aborting the batch.
func (g *Generator) GenerateBatch(ctx context.Context, symbols []string) []types.Signal {
	signals := make([]types.Signal, 0, len(symbols))
	for i, symbol := range symbols {
		if i > 0 {
			if err := g.limiter.Wait(ctx); err != nil {
				signals = append(signals, types.Signal{
					Symbol:    symbol,
					Action:    types.ActionHold,
					Reason:    "batch interrupted: " + err.Error(),
					Timestamp: g.now(),
				})
				continue
			}
		}
		signals = append(signals, g.Generate(ctx, symbol))
	}
	return signals
}

// PositionSize scales position size linearly with confidence, floored to a
// minimum of one share.
func (g *Generator) PositionSize(confidence float64, maxPositionSize int) int {
	qty := int(clamp01(confidence) * float64(maxPositionSize))
	if qty < 1 {
		qty = 1
	}
	return qty
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
