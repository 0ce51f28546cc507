package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// SignalGenerator turns indicators into trading decisions. Generate and
// GenerateBatch never fail outward; internal errors degrade to HOLD signals.
type SignalGenerator interface {
	Generate(ctx context.Context, symbol string) types.Signal
	GenerateBatch(ctx context.Context, symbols []string) []types.Signal
	PositionSize(confidence float64, maxPositionSize int) int
	UpdateThresholds(oversold, overbought float64) error
	SetMinConfidence(v float64) error
}
