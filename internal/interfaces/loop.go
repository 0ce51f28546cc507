package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Loop is the automated trading loop's caller-facing surface. The HTTP layer
// translates these plain results into transport responses.
type Loop interface {
	Start(ctx context.Context, symbols []string, intervalMinutes int) (types.LoopStatus, error)
	Stop(ctx context.Context)
	Status() types.LoopStatus
	UpdateParameters(ctx context.Context, upd types.ParameterUpdate) (types.LoopStatus, error)
	RunCycle(ctx context.Context) types.CycleResult
}
