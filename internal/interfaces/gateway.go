package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Gateway is the brokerage API surface the core depends on. All methods are
// network calls; the core treats a failure as an execution failure for that
// item only and never retries.
type Gateway interface {
	Account(ctx context.Context) (types.Account, error)
	Positions(ctx context.Context) ([]types.Position, error)
	// OpenOrders returns open orders, optionally filtered to one symbol.
	// An empty symbol means all symbols.
	OpenOrders(ctx context.Context, symbol string) ([]types.Order, error)
	CancelOrder(ctx context.Context, id string) error
	SubmitOrder(ctx context.Context, req types.OrderRequest) (types.Order, error)
}
