package signal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"signal-trader/internal/types"
)

// fakeSource returns canned indicators per symbol.
type fakeSource struct {
	indicators map[string]types.Indicators
	err        error
	errSymbols map[string]bool
	synthetic  bool
}

func (f *fakeSource) Indicators(ctx context.Context, symbol string, at time.Time) (types.Indicators, error) {
	if f.err != nil && (f.errSymbols == nil || f.errSymbols[symbol]) {
		return types.Indicators{}, f.err
	}
	return f.indicators[symbol], nil
}

func (f *fakeSource) Synthetic() bool { return f.synthetic }

func newTestGenerator(t *testing.T, src *fakeSource, minConf float64) *Generator {
	t.Helper()
	g, err := New(src, Config{
		Oversold:      30,
		Overbought:    70,
		MinConfidence: minConf,
		SymbolDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to build generator: %v", err)
	}
	return g
}

func TestGenerateBuyOnOversold(t *testing.T) {
	src := &fakeSource{indicators: map[string]types.Indicators{
		"AAPL": {RSI: 25, SMA20: 110, SMA50: 100, Price: 112},
	}}
	g := newTestGenerator(t, src, 0.7)

	sig := g.Generate(context.Background(), "AAPL")

	if sig.Action != types.ActionBuy {
		t.Fatalf("expected BUY, got %s (%s)", sig.Action, sig.Reason)
	}
	// base 0.6 + 0.3*(30-25)/30 + 0.1 (price > SMA20) + 0.1 (SMA20 > SMA50)
	want := 0.6 + 0.3*(5.0/30.0) + 0.1 + 0.1
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Errorf("expected confidence %.6f, got %.6f", want, sig.Confidence)
	}
	if !sig.ShouldExecute {
		t.Error("expected ShouldExecute with confidence above min")
	}
}

func TestGenerateSellOnOverbought(t *testing.T) {
	src := &fakeSource{indicators: map[string]types.Indicators{
		"TSLA": {RSI: 85, SMA20: 200, SMA50: 210, Price: 190},
	}}
	g := newTestGenerator(t, src, 0.7)

	sig := g.Generate(context.Background(), "TSLA")

	if sig.Action != types.ActionSell {
		t.Fatalf("expected SELL, got %s (%s)", sig.Action, sig.Reason)
	}
	// base 0.6 + 0.3*(85-70)/30 + 0.1 (price < SMA20) + 0.1 (SMA20 < SMA50)
	want := 0.6 + 0.3*(15.0/30.0) + 0.1 + 0.1
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Errorf("expected confidence %.6f, got %.6f", want, sig.Confidence)
	}
}

func TestGenerateHoldInNeutralBand(t *testing.T) {
	src := &fakeSource{indicators: map[string]types.Indicators{
		"MSFT": {RSI: 50, SMA20: 100, SMA50: 100, Price: 100},
	}}
	g := newTestGenerator(t, src, 0.7)

	sig := g.Generate(context.Background(), "MSFT")

	if sig.Action != types.ActionHold {
		t.Fatalf("expected HOLD, got %s", sig.Action)
	}
	if sig.ShouldExecute {
		t.Error("HOLD at 0.5 confidence should not clear a 0.7 floor")
	}
}

func TestConfidenceClampedToOne(t *testing.T) {
	src := &fakeSource{indicators: map[string]types.Indicators{
		"AAPL": {RSI: 0, SMA20: 100, SMA50: 90, Price: 120},
	}}
	g := newTestGenerator(t, src, 0.7)

	sig := g.Generate(context.Background(), "AAPL")

	if sig.Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %f", sig.Confidence)
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	g := newTestGenerator(t, &fakeSource{}, 0.7)

	for rsi := 0.0; rsi <= 100; rsi += 2.5 {
		for _, price := range []float64{80, 100, 120} {
			src := &fakeSource{indicators: map[string]types.Indicators{
				"X": {RSI: rsi, SMA20: 100, SMA50: 95, Price: price},
			}}
			g.src = src
			sig := g.Generate(context.Background(), "X")
			if sig.Confidence < 0 || sig.Confidence > 1 {
				t.Fatalf("confidence out of range: rsi=%f price=%f conf=%f", rsi, price, sig.Confidence)
			}
		}
	}
}

func TestGenerateDegradesToHoldOnError(t *testing.T) {
	src := &fakeSource{err: errors.New("feed unavailable")}
	g := newTestGenerator(t, src, 0.7)

	sig := g.Generate(context.Background(), "AAPL")

	if sig.Action != types.ActionHold {
		t.Fatalf("expected HOLD on source failure, got %s", sig.Action)
	}
	if sig.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", sig.Confidence)
	}
	if sig.ShouldExecute {
		t.Error("degraded signal must not be executable")
	}
	if sig.Reason == "" {
		t.Error("expected reason to carry the failure")
	}
}

func TestGenerateBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	src := &fakeSource{
		indicators: map[string]types.Indicators{
			"AAPL": {RSI: 25, SMA20: 110, SMA50: 100, Price: 112},
			"MSFT": {RSI: 80, SMA20: 200, SMA50: 210, Price: 190},
		},
		err:        errors.New("timeout"),
		errSymbols: map[string]bool{"GOOGL": true},
	}
	g := newTestGenerator(t, src, 0.7)

	sigs := g.GenerateBatch(context.Background(), []string{"AAPL", "GOOGL", "MSFT"})

	if len(sigs) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(sigs))
	}
	if sigs[0].Symbol != "AAPL" || sigs[1].Symbol != "GOOGL" || sigs[2].Symbol != "MSFT" {
		t.Errorf("batch order not preserved: %s, %s, %s", sigs[0].Symbol, sigs[1].Symbol, sigs[2].Symbol)
	}
	if sigs[0].Action != types.ActionBuy {
		t.Errorf("expected BUY for AAPL, got %s", sigs[0].Action)
	}
	if sigs[1].Action != types.ActionHold || sigs[1].Confidence != 0 {
		t.Errorf("expected degraded HOLD for GOOGL, got %s conf %f", sigs[1].Action, sigs[1].Confidence)
	}
	if sigs[2].Action != types.ActionSell {
		t.Errorf("expected SELL for MSFT, got %s", sigs[2].Action)
	}
}

func TestPositionSize(t *testing.T) {
	g := newTestGenerator(t, &fakeSource{}, 0.7)

	if got := g.PositionSize(0.9, 5); got != 4 {
		t.Errorf("PositionSize(0.9, 5) = %d, want 4", got)
	}
	if got := g.PositionSize(0.01, 10); got != 1 {
		t.Errorf("expected minimum of 1 share, got %d", got)
	}
	if got := g.PositionSize(1.0, 10); got != 10 {
		t.Errorf("PositionSize(1.0, 10) = %d, want 10", got)
	}

	// Monotonically non-decreasing in confidence.
	prev := 0
	for conf := 0.0; conf <= 1.0; conf += 0.01 {
		got := g.PositionSize(conf, 25)
		if got < prev {
			t.Fatalf("position size decreased: conf=%f got=%d prev=%d", conf, got, prev)
		}
		if got < 1 {
			t.Fatalf("position size below 1: conf=%f got=%d", conf, got)
		}
		prev = got
	}
}

func TestInvertedThresholdsRejected(t *testing.T) {
	if _, err := New(&fakeSource{}, Config{Oversold: 70, Overbought: 30, MinConfidence: 0.7}); err == nil {
		t.Error("expected constructor to reject inverted thresholds")
	}

	g := newTestGenerator(t, &fakeSource{}, 0.7)
	if err := g.UpdateThresholds(80, 20); err == nil {
		t.Error("expected UpdateThresholds to reject inverted thresholds")
	}
	if err := g.UpdateThresholds(-5, 70); err == nil {
		t.Error("expected UpdateThresholds to reject negative oversold")
	}
	if err := g.UpdateThresholds(25, 75); err != nil {
		t.Errorf("expected valid thresholds to be accepted: %v", err)
	}
}

func TestUpdateThresholdsAffectsNextEvaluation(t *testing.T) {
	src := &fakeSource{indicators: map[string]types.Indicators{
		"AAPL": {RSI: 35, SMA20: 110, SMA50: 100, Price: 112},
	}}
	g := newTestGenerator(t, src, 0.7)

	if sig := g.Generate(context.Background(), "AAPL"); sig.Action != types.ActionHold {
		t.Fatalf("expected HOLD at RSI 35 with oversold 30, got %s", sig.Action)
	}
	if err := g.UpdateThresholds(40, 70); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig := g.Generate(context.Background(), "AAPL"); sig.Action != types.ActionBuy {
		t.Errorf("expected BUY at RSI 35 with oversold 40, got %s", sig.Action)
	}
}

func TestSetMinConfidence(t *testing.T) {
	g := newTestGenerator(t, &fakeSource{}, 0.7)

	if err := g.SetMinConfidence(1.5); err == nil {
		t.Error("expected rejection of out-of-range min confidence")
	}
	if err := g.SetMinConfidence(0.5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHoldOverrideDeterministicAndBounded(t *testing.T) {
	at := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	a1, c1, _, ok1 := holdOverride("AAPL", at)
	a2, c2, _, ok2 := holdOverride("AAPL", at.Add(time.Minute))

	if ok1 != ok2 || a1 != a2 || c1 != c2 {
		t.Error("override must be stable within one override bucket")
	}

	promoted := 0
	for _, sym := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"} {
		for i := 0; i < 20; i++ {
			action, conf, _, ok := holdOverride(sym, at.Add(time.Duration(i)*overrideBucket))
			if !ok {
				continue
			}
			promoted++
			if action != types.ActionBuy && action != types.ActionSell {
				t.Fatalf("override produced invalid action %s", action)
			}
			if conf < 0.5 || conf > 0.8 {
				t.Fatalf("override confidence out of range: %f", conf)
			}
		}
	}
	if promoted == 0 {
		t.Error("expected at least some overrides across symbols and buckets")
	}
}

func TestNoOverrideForRealSources(t *testing.T) {
	// A non-synthetic source must never see test signals even when the
	// feature is switched on.
	src := &fakeSource{
		indicators: map[string]types.Indicators{},
		synthetic:  false,
	}
	g, err := New(src, Config{Oversold: 30, Overbought: 70, MinConfidence: 0.1, SymbolDelay: time.Millisecond, TestSignals: true})
	if err != nil {
		t.Fatalf("failed to build generator: %v", err)
	}

	for i := 0; i < 50; i++ {
		src.indicators["X"] = types.Indicators{RSI: 50, SMA20: 100, SMA50: 100, Price: 100}
		if sig := g.Generate(context.Background(), "X"); sig.Action != types.ActionHold {
			t.Fatalf("real source produced a test signal: %s", sig.Action)
		}
	}
}
