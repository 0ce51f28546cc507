package trader

import (
	"context"
	"time"

	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
	"signal-trader/internal/trace"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/types"
)

// RunCycle performs one evaluation cycle over the current watchlist: batch
// signal generation, executable filtering, then sequential trade execution
// with a fixed inter-trade delay. Failures are logged and counted, never
// propagated; a failed cycle must not kill the timer.
func (l *Loop) RunCycle(ctx context.Context) types.CycleResult {
	ctx, span := trace.StartSpan(ctx, "trader.RunCycle")
	defer span.End()

	l.mu.Lock()
	symbols := make([]string, len(l.params.Symbols))
	copy(symbols, l.params.Symbols)
	minConfidence := l.params.MinConfidence
	interTradeDelay := l.params.InterTradeDelay
	l.mu.Unlock()

	result := types.CycleResult{}
	if len(symbols) == 0 {
		logger.Warn(ctx, "Watchlist empty, nothing to evaluate")
		return result
	}

	logger.Info(ctx, "Cycle started", "symbols", symbols)

	signals := l.gen.GenerateBatch(ctx, symbols)
	result.Evaluated = len(signals)

	executable := make([]types.Signal, 0, len(signals))
	for _, sig := range signals {
		metrics.SignalsTotal.WithLabelValues(string(sig.Action)).Inc()

		// MinConfidence is re-checked even though ShouldExecute already
		// encodes it; a stale signal must never slip through.
		execute := sig.ShouldExecute && sig.Confidence >= minConfidence && sig.Action != types.ActionHold
		if execute {
			executable = append(executable, sig)
		}

		_ = tradelog.AppendSignal(tradelog.SignalEntry{
			Symbol:     sig.Symbol,
			Action:     string(sig.Action),
			Reason:     sig.Reason,
			Confidence: sig.Confidence,
			Indicators: map[string]float64{
				"RSI":   sig.Indicators.RSI,
				"SMA20": sig.Indicators.SMA20,
				"SMA50": sig.Indicators.SMA50,
				"PRICE": sig.Indicators.Price,
			},
			Executed: execute,
		})
	}
	result.Executable = len(executable)

	for i, sig := range executable {
		if i > 0 {
			sleepCtx(ctx, interTradeDelay)
		}
		res := l.ExecuteTrade(ctx, sig)
		result.Results = append(result.Results, res)
		switch {
		case !res.Success:
			result.Failures++
		case sig.Action == types.ActionBuy:
			result.Buys++
		case sig.Action == types.ActionSell:
			result.Sells++
		}
	}

	l.mu.Lock()
	l.cyclesRun++
	l.lastCycleAt = time.Now().UTC()
	l.mu.Unlock()

	metrics.CyclesTotal.Inc()
	logger.Info(ctx, "Cycle complete",
		"evaluated", result.Evaluated,
		"executable", result.Executable,
		"buys", result.Buys,
		"sells", result.Sells,
		"failures", result.Failures,
	)
	return result
}

// ExecuteTrade places one order for an executable signal. Opposing open
// orders on the symbol are cancelled first so the brokerage never sees
// near-simultaneous opposing orders (wash-trade rejection). Never panics;
// failure is captured in the result.
func (l *Loop) ExecuteTrade(ctx context.Context, sig types.Signal) types.TradeResult {
	ctx, span := trace.StartSpan(ctx, "trader.ExecuteTrade")
	defer span.End()

	result := types.TradeResult{Signal: sig}

	if sig.Action == types.ActionHold {
		result.Error = "refusing to execute HOLD signal"
		return result
	}

	l.mu.Lock()
	maxPositionSize := l.params.MaxPositionSize
	settleDelay := l.params.SettleDelay
	l.mu.Unlock()

	side := sig.Action.Side()

	open, err := l.gw.OpenOrders(ctx, sig.Symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch open orders", err, "symbol", sig.Symbol)
		metrics.TradeFailuresTotal.WithLabelValues(sig.Symbol).Inc()
		result.Error = "fetch open orders: " + err.Error()
		return result
	}

	// Cancel every opposing-side order best-effort; one failed cancel must
	// not abort the rest.
	for _, o := range open {
		if o.Side == side {
			continue
		}
		if err := l.gw.CancelOrder(ctx, o.ID); err != nil {
			logger.Warn(ctx, "Failed to cancel opposing order",
				"symbol", sig.Symbol,
				"order_id", o.ID,
				"error", err,
			)
			continue
		}
		result.Cancelled++
	}
	if result.Cancelled > 0 {
		logger.Risk(ctx, sig.Symbol, "OPPOSING_ORDERS_CANCELLED",
			"cancelled", result.Cancelled,
			"new_side", side,
		)
		// Give the gateway time to converge before submitting the
		// conflicting new order.
		sleepCtx(ctx, settleDelay)
	}

	qty := l.gen.PositionSize(sig.Confidence, maxPositionSize)
	result.PositionSize = qty

	order, err := l.gw.SubmitOrder(ctx, types.OrderRequest{
		Symbol:      sig.Symbol,
		Qty:         qty,
		Side:        side,
		Type:        "market",
		TimeInForce: "day",
		Origin:      types.OriginAutomation,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit order", err,
			"symbol", sig.Symbol,
			"side", side,
			"qty", qty,
		)
		metrics.TradeFailuresTotal.WithLabelValues(sig.Symbol).Inc()
		result.Error = "submit order: " + err.Error()
		return result
	}

	metrics.TradesTotal.WithLabelValues(sig.Symbol, string(side)).Inc()
	logger.Trade(ctx, sig.Symbol, string(side), qty, order.ID, "confidence", sig.Confidence)
	_ = tradelog.Append(tradelog.Entry{
		Symbol:     sig.Symbol,
		Side:       string(side),
		Qty:        qty,
		OrderID:    order.ID,
		Reason:     sig.Reason,
		Confidence: sig.Confidence,
		Origin:     string(types.OriginAutomation),
	})

	result.Success = true
	result.OrderID = order.ID
	return result
}
