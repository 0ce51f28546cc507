package trader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
	"signal-trader/internal/types"
)

// Params holds the loop's mutable trading parameters plus its fixed pacing
// knobs. Symbols, MaxPositionSize and MinConfidence can change at runtime via
// UpdateParameters; changes apply from the next cycle, never retroactively.
type Params struct {
	Symbols         []string
	IntervalMinutes int
	MaxPositionSize int
	MinConfidence   float64
	// AllowOverlap lets a timer tick start a new cycle while the previous
	// one is still running. Off by default: a slow gateway outlasting the
	// interval would otherwise stack concurrent cycles.
	AllowOverlap    bool
	InterTradeDelay time.Duration
	SettleDelay     time.Duration
}

// Loop owns the periodic schedule and drives order execution from signals.
// All state is guarded by mu; at most one timer goroutine is ever active.
type Loop struct {
	mu     sync.Mutex
	params Params

	gw  interfaces.Gateway
	gen interfaces.SignalGenerator

	running bool
	cancel  context.CancelFunc
	busy    atomic.Bool

	cyclesRun    uint64
	skippedTicks uint64
	lastCycleAt  time.Time
}

var _ interfaces.Loop = (*Loop)(nil)

func New(gw interfaces.Gateway, gen interfaces.SignalGenerator, params Params) *Loop {
	if params.IntervalMinutes == 0 {
		params.IntervalMinutes = 5
	}
	params.IntervalMinutes = clampInterval(params.IntervalMinutes)
	if params.MaxPositionSize <= 0 {
		params.MaxPositionSize = 10
	}
	if params.MinConfidence <= 0 {
		params.MinConfidence = 0.7
	}
	if params.InterTradeDelay <= 0 {
		params.InterTradeDelay = 500 * time.Millisecond
	}
	if params.SettleDelay <= 0 {
		params.SettleDelay = time.Second
	}
	return &Loop{params: params, gw: gw, gen: gen}
}

func clampInterval(minutes int) int {
	if minutes < 1 {
		return 1
	}
	if minutes > 1440 {
		return 1440
	}
	return minutes
}

func normalizeSymbols(symbols []string) ([]string, error) {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || strings.ContainsAny(s, " \t") {
			return nil, fmt.Errorf("invalid symbol %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}

// Start transitions the loop to Running: it runs one cycle synchronously,
// then arms a recurring timer. Calling Start while already running is a
// logged no-op that returns the current status.
func (l *Loop) Start(ctx context.Context, symbols []string, intervalMinutes int) (types.LoopStatus, error) {
	normalized, err := normalizeSymbols(symbols)
	if err != nil {
		return types.LoopStatus{}, err
	}

	l.mu.Lock()
	if l.running {
		logger.Warn(ctx, "Automation already running, start ignored")
		status := l.statusLocked()
		l.mu.Unlock()
		return status, nil
	}
	if len(normalized) > 0 {
		l.params.Symbols = normalized
	}
	l.params.IntervalMinutes = clampInterval(intervalMinutes)
	interval := time.Duration(l.params.IntervalMinutes) * time.Minute

	// The loop context deliberately does not inherit the caller's: the
	// schedule must outlive the HTTP request that started it.
	loopCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true
	status := l.statusLocked()
	l.mu.Unlock()

	logger.Info(ctx, "Automation started",
		"symbols", status.Symbols,
		"interval_minutes", status.IntervalMinutes,
	)

	// The cancel token only stops the schedule. Cycles run on a context
	// that survives Stop: an in-flight cycle has no cancellation point and
	// must finish its cancel-settle-submit sequence, or it would leave
	// opposing orders cancelled with no replacement submitted.
	cycleCtx := context.WithoutCancel(loopCtx)
	l.runTick(cycleCtx)
	go l.run(loopCtx, cycleCtx, interval)

	return l.Status(), nil
}

// run drives scheduled cycles until the loop context is cancelled. Ticks
// hand the separate cycle context to runTick so cancellation never reaches
// into a running cycle.
func (l *Loop) run(ctx, cycleCtx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runTick(cycleCtx)
		}
	}
}

// runTick guards a cycle with the overlap policy. With overlap disallowed
// (the default) a tick that fires while a cycle is still executing is
// counted and skipped instead of stacking.
func (l *Loop) runTick(ctx context.Context) {
	l.mu.Lock()
	allowOverlap := l.params.AllowOverlap
	l.mu.Unlock()

	if !allowOverlap {
		if !l.busy.CompareAndSwap(false, true) {
			l.mu.Lock()
			l.skippedTicks++
			l.mu.Unlock()
			metrics.SkippedTicksTotal.Inc()
			logger.Warn(ctx, "Previous cycle still running, tick skipped")
			return
		}
		defer l.busy.Store(false)
	}

	l.RunCycle(ctx)
}

// Stop prevents future cycles. A cycle already in progress is allowed to
// finish so no partial order-placement state is left behind. Stopping a
// stopped loop is a logged no-op.
func (l *Loop) Stop(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		logger.Warn(ctx, "Automation not running, stop ignored")
		return
	}
	l.cancel()
	l.cancel = nil
	l.running = false
	logger.Info(ctx, "Automation stopped")
}

// Status is a pure read.
func (l *Loop) Status() types.LoopStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked()
}

func (l *Loop) statusLocked() types.LoopStatus {
	symbols := make([]string, len(l.params.Symbols))
	copy(symbols, l.params.Symbols)
	return types.LoopStatus{
		Running:         l.running,
		Symbols:         symbols,
		MaxPositionSize: l.params.MaxPositionSize,
		MinConfidence:   l.params.MinConfidence,
		IntervalMinutes: l.params.IntervalMinutes,
		CyclesRun:       l.cyclesRun,
		SkippedTicks:    l.skippedTicks,
		LastCycleAt:     l.lastCycleAt,
	}
}

// UpdateParameters merges the provided fields into loop state. Validation
// failures reject the whole update; nothing is partially applied. New values
// take effect from the next cycle.
func (l *Loop) UpdateParameters(ctx context.Context, upd types.ParameterUpdate) (types.LoopStatus, error) {
	if upd.MaxPositionSize != nil && *upd.MaxPositionSize <= 0 {
		return types.LoopStatus{}, fmt.Errorf("max_position_size must be positive, got %d", *upd.MaxPositionSize)
	}
	if upd.MinConfidence != nil && (*upd.MinConfidence < 0 || *upd.MinConfidence > 1) {
		return types.LoopStatus{}, fmt.Errorf("min_confidence must be between 0-1, got %.2f", *upd.MinConfidence)
	}
	if (upd.RSIOversold == nil) != (upd.RSIOverbought == nil) {
		return types.LoopStatus{}, fmt.Errorf("rsi_oversold and rsi_overbought must be updated together")
	}

	var symbols []string
	if len(upd.Symbols) > 0 {
		var err error
		symbols, err = normalizeSymbols(upd.Symbols)
		if err != nil {
			return types.LoopStatus{}, err
		}
	}

	if upd.RSIOversold != nil {
		if err := l.gen.UpdateThresholds(*upd.RSIOversold, *upd.RSIOverbought); err != nil {
			return types.LoopStatus{}, err
		}
	}
	if upd.MinConfidence != nil {
		if err := l.gen.SetMinConfidence(*upd.MinConfidence); err != nil {
			return types.LoopStatus{}, err
		}
	}

	l.mu.Lock()
	if len(symbols) > 0 {
		l.params.Symbols = symbols
	}
	if upd.MaxPositionSize != nil {
		l.params.MaxPositionSize = *upd.MaxPositionSize
	}
	if upd.MinConfidence != nil {
		l.params.MinConfidence = *upd.MinConfidence
	}
	status := l.statusLocked()
	l.mu.Unlock()

	logger.Info(ctx, "Automation parameters updated",
		"symbols", status.Symbols,
		"max_position_size", status.MaxPositionSize,
		"min_confidence", status.MinConfidence,
	)
	return status, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
