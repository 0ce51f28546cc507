package alpaca

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/platform/httpx"
	"signal-trader/internal/types"
)

// Client-order-id prefixes are the only attribution the brokerage carries
// for us. They are written on submission and parsed back exactly once, in
// orderFromPayload; nothing outside this package looks at the tag.
const (
	tagAutomation = "automation_"
	tagManual     = "manual_"
)

type Params struct {
	Mode           string // PAPER or LIVE
	BaseURL        string
	APIKey         string
	APISecret      string
	TimeoutSeconds int
	RequestsPerSec int
}

// Client adapts the brokerage REST API to the core's Gateway contract. In
// PAPER mode orders are simulated in memory so the full cancel-then-submit
// flow is exercisable without credentials.
type Client struct {
	p    Params
	http *httpx.Client

	mu     sync.Mutex
	nextID int
	open   map[string]types.Order
}

var _ interfaces.Gateway = (*Client)(nil)

func New(p Params) *Client {
	if p.BaseURL == "" {
		p.BaseURL = "https://paper-api.alpaca.markets"
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 30
	}
	if p.RequestsPerSec <= 0 {
		p.RequestsPerSec = 5
	}
	return &Client{
		p: p,
		http: httpx.NewClient(
			httpx.WithBaseURL(p.BaseURL),
			httpx.WithTimeout(time.Duration(p.TimeoutSeconds)*time.Second),
			httpx.WithRateLimit(p.RequestsPerSec),
			httpx.WithHeader("APCA-API-KEY-ID", p.APIKey),
			httpx.WithHeader("APCA-API-SECRET-KEY", p.APISecret),
		),
		open: make(map[string]types.Order),
	}
}

func (c *Client) paper() bool { return c.p.Mode != "LIVE" }

func (c *Client) Account(ctx context.Context) (types.Account, error) {
	if c.paper() {
		return types.Account{
			ID:             "paper-account",
			Currency:       "USD",
			Cash:           decimal.NewFromInt(100000),
			BuyingPower:    decimal.NewFromInt(200000),
			PortfolioValue: decimal.NewFromInt(100000),
			Equity:         decimal.NewFromInt(100000),
		}, nil
	}

	resp, err := c.http.GET(ctx, "/v2/account")
	if err != nil {
		return types.Account{}, fmt.Errorf("fetch account: %w", err)
	}
	var p accountPayload
	if err := resp.ParseJSON(&p); err != nil {
		return types.Account{}, err
	}
	return p.toAccount()
}

func (c *Client) Positions(ctx context.Context) ([]types.Position, error) {
	if c.paper() {
		return []types.Position{}, nil
	}

	resp, err := c.http.GET(ctx, "/v2/positions")
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	var ps []positionPayload
	if err := resp.ParseJSON(&ps); err != nil {
		return nil, err
	}
	out := make([]types.Position, 0, len(ps))
	for _, p := range ps {
		pos, err := p.toPosition()
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	if c.paper() {
		c.mu.Lock()
		defer c.mu.Unlock()
		out := make([]types.Order, 0, len(c.open))
		for _, o := range c.open {
			if symbol == "" || o.Symbol == symbol {
				out = append(out, o)
			}
		}
		return out, nil
	}

	path := "/v2/orders?status=open&limit=100"
	if symbol != "" {
		path += "&symbols=" + symbol
	}
	resp, err := c.http.GET(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	var ps []orderPayload
	if err := resp.ParseJSON(&ps); err != nil {
		return nil, err
	}
	out := make([]types.Order, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.toOrder())
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty order id")
	}
	if c.paper() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.open[id]; !ok {
			return fmt.Errorf("order %s not found", id)
		}
		delete(c.open, id)
		return nil
	}

	if _, err := c.http.DELETE(ctx, "/v2/orders/"+id); err != nil {
		return fmt.Errorf("cancel order %s: %w", id, err)
	}
	return nil
}

func (c *Client) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	if req.Symbol == "" {
		return types.Order{}, errors.New("order symbol is required")
	}
	if req.Qty <= 0 {
		return types.Order{}, fmt.Errorf("order qty must be positive, got %d", req.Qty)
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return types.Order{}, fmt.Errorf("invalid order side %q", req.Side)
	}
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "day"
	}

	clientOrderID := newClientOrderID(req.Origin)

	if c.paper() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.nextID++
		o := types.Order{
			ID:            fmt.Sprintf("PAPER-%d", c.nextID),
			ClientOrderID: clientOrderID,
			Symbol:        req.Symbol,
			Side:          req.Side,
			Qty:           req.Qty,
			Status:        "accepted",
			Origin:        originFromClientOrderID(clientOrderID),
			SubmittedAt:   time.Now().UTC(),
		}
		c.open[o.ID] = o
		return o, nil
	}

	if c.p.APIKey == "" || c.p.APISecret == "" {
		return types.Order{}, errors.New("missing API key/secret for LIVE mode")
	}

	body := map[string]any{
		"symbol":          req.Symbol,
		"qty":             strconv.Itoa(req.Qty),
		"side":            string(req.Side),
		"type":            req.Type,
		"time_in_force":   req.TimeInForce,
		"client_order_id": clientOrderID,
	}
	resp, err := c.http.POST(ctx, "/v2/orders", body)
	if err != nil {
		return types.Order{}, fmt.Errorf("submit order: %w", err)
	}
	var p orderPayload
	if err := resp.ParseJSON(&p); err != nil {
		return types.Order{}, err
	}
	return p.toOrder(), nil
}

func newClientOrderID(origin types.Origin) string {
	prefix := tagManual
	if origin == types.OriginAutomation {
		prefix = tagAutomation
	}
	return prefix + strconv.FormatInt(time.Now().UnixNano(), 10)
}

func originFromClientOrderID(id string) types.Origin {
	switch {
	case strings.HasPrefix(id, tagAutomation):
		return types.OriginAutomation
	case strings.HasPrefix(id, tagManual):
		return types.OriginManual
	default:
		return types.OriginUnknown
	}
}
