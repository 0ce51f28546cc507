package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the trading decision produced by the signal generator.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Side is the order side in the brokerage wire format.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Side maps a BUY/SELL action to an order side. HOLD has no side.
func (a Action) Side() Side {
	if a == ActionSell {
		return SideSell
	}
	return SideBuy
}

// Origin records who submitted an order. The gateway derives it from the
// client-order-id prefix exactly once, at decode time.
type Origin string

const (
	OriginAutomation Origin = "automation"
	OriginManual     Origin = "manual"
	OriginUnknown    Origin = "unknown"
)

// Indicators is one evaluation's worth of technical indicators for a symbol.
type Indicators struct {
	RSI   float64 `json:"rsi"`
	SMA20 float64 `json:"sma20"`
	SMA50 float64 `json:"sma50"`
	Price float64 `json:"current_price"`
}

// Signal is a transient decision record. Created fresh per evaluation, never
// mutated, never persisted.
type Signal struct {
	Symbol        string     `json:"symbol"`
	Action        Action     `json:"signal"`
	Confidence    float64    `json:"confidence"`
	Reason        string     `json:"reason"`
	Indicators    Indicators `json:"indicators"`
	Timestamp     time.Time  `json:"timestamp"`
	ShouldExecute bool       `json:"should_execute"`
}

// OrderRequest is what the core hands to the gateway for submission.
type OrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         int    `json:"qty"`
	Side        Side   `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	Origin      Origin `json:"-"`
}

// Order is the brokerage-side record. Not owned by this system.
type Order struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Qty           int       `json:"qty"`
	Status        string    `json:"status"`
	Origin        Origin    `json:"origin"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// TradeResult is the outcome of one trade execution attempt.
type TradeResult struct {
	Success      bool   `json:"success"`
	OrderID      string `json:"order_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Signal       Signal `json:"signal"`
	PositionSize int    `json:"position_size"`
	Cancelled    int    `json:"cancelled_orders"`
}

// CycleResult summarizes one evaluation cycle of the trading loop.
type CycleResult struct {
	Evaluated  int           `json:"evaluated"`
	Executable int           `json:"executable"`
	Buys       int           `json:"buys"`
	Sells      int           `json:"sells"`
	Failures   int           `json:"failures"`
	Results    []TradeResult `json:"results,omitempty"`
}

// LoopStatus is a point-in-time snapshot of the trading loop state.
type LoopStatus struct {
	Running         bool      `json:"is_running"`
	Symbols         []string  `json:"watched_symbols"`
	MaxPositionSize int       `json:"max_position_size"`
	MinConfidence   float64   `json:"min_confidence"`
	IntervalMinutes int       `json:"interval_minutes"`
	CyclesRun       uint64    `json:"cycles_run"`
	SkippedTicks    uint64    `json:"skipped_ticks"`
	LastCycleAt     time.Time `json:"last_cycle_at"`
}

// ParameterUpdate is a partial update to the loop parameters. Nil fields are
// left untouched.
type ParameterUpdate struct {
	Symbols         []string `json:"symbols,omitempty"`
	MaxPositionSize *int     `json:"max_position_size,omitempty"`
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
	RSIOversold     *float64 `json:"rsi_oversold,omitempty"`
	RSIOverbought   *float64 `json:"rsi_overbought,omitempty"`
}

// Account mirrors the brokerage account snapshot. Money fields keep the
// brokerage's decimal precision.
type Account struct {
	ID             string          `json:"id"`
	Currency       string          `json:"currency"`
	Cash           decimal.Decimal `json:"cash"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	Equity         decimal.Decimal `json:"equity"`
}

// Position is one open brokerage position.
type Position struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
}
