package gatewayobs

import (
	"context"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

// observableGateway wraps a Gateway with logging and tracing.
type observableGateway struct {
	gw interfaces.Gateway
}

// Compile-time interface check
var _ interfaces.Gateway = (*observableGateway)(nil)

// Wrap wraps a gateway with observability middleware
func Wrap(gw interfaces.Gateway) interfaces.Gateway {
	return &observableGateway{gw: gw}
}

func (og *observableGateway) Account(ctx context.Context) (types.Account, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.Account")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching account")

	acct, err := og.gw.Account(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch account", err)
		return types.Account{}, err
	}

	logger.DebugSkip(ctx, 1, "Account fetched successfully", "account_id", acct.ID)
	return acct, nil
}

func (og *observableGateway) Positions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.Positions")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching positions")

	positions, err := og.gw.Positions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Positions fetched successfully", "count", len(positions))
	return positions, nil
}

func (og *observableGateway) OpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.OpenOrders")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching open orders", "symbol", symbol)

	orders, err := og.gw.OpenOrders(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch open orders", err, "symbol", symbol)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Open orders fetched successfully", "symbol", symbol, "count", len(orders))
	return orders, nil
}

func (og *observableGateway) CancelOrder(ctx context.Context, id string) error {
	ctx, span := trace.StartSpan(ctx, "gateway.CancelOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Cancelling order", "order_id", id)

	if err := og.gw.CancelOrder(ctx, id); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "order_id", id)
		return err
	}

	logger.InfoSkip(ctx, 1, "Order cancelled successfully", "order_id", id)
	return nil
}

func (og *observableGateway) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.SubmitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"origin", req.Origin,
	)

	order, err := og.gw.SubmitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.Order{}, err
	}

	logger.InfoSkip(ctx, 1, "Order submitted successfully",
		"symbol", req.Symbol,
		"order_id", order.ID,
		"status", order.Status,
	)
	return order, nil
}
