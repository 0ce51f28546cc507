package interfaces

import (
	"context"
	"time"

	"signal-trader/internal/types"
)

// IndicatorSource produces technical indicators for a symbol at a point in
// time. Implementations should be deterministic for a given (symbol, time
// bucket) so evaluations are reproducible in tests.
type IndicatorSource interface {
	Indicators(ctx context.Context, symbol string, at time.Time) (types.Indicators, error)
	// Synthetic reports whether the source produces placeholder data.
	// Test-only behavior (like the generator's HOLD override) keys off this.
	Synthetic() bool
}
