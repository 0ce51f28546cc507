package alpaca

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/types"
)

// Wire payloads. The brokerage serializes money and quantity as strings;
// decimal parsing happens here so the rest of the code never sees raw text.

type accountPayload struct {
	ID             string `json:"id"`
	Currency       string `json:"currency"`
	Cash           string `json:"cash"`
	BuyingPower    string `json:"buying_power"`
	PortfolioValue string `json:"portfolio_value"`
	Equity         string `json:"equity"`
}

func (p accountPayload) toAccount() (types.Account, error) {
	out := types.Account{ID: p.ID, Currency: p.Currency}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"cash", p.Cash, &out.Cash},
		{"buying_power", p.BuyingPower, &out.BuyingPower},
		{"portfolio_value", p.PortfolioValue, &out.PortfolioValue},
		{"equity", p.Equity, &out.Equity},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return types.Account{}, fmt.Errorf("parse account %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return out, nil
}

type positionPayload struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

func (p positionPayload) toPosition() (types.Position, error) {
	out := types.Position{Symbol: p.Symbol}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"qty", p.Qty, &out.Qty},
		{"avg_entry_price", p.AvgEntryPrice, &out.AvgEntryPrice},
		{"market_value", p.MarketValue, &out.MarketValue},
		{"unrealized_pl", p.UnrealizedPL, &out.UnrealizedPL},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return types.Position{}, fmt.Errorf("parse position %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return out, nil
}

type orderPayload struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Qty           string    `json:"qty"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (p orderPayload) toOrder() types.Order {
	qty := 0
	if d, err := decimal.NewFromString(p.Qty); err == nil {
		qty = int(d.IntPart())
	}
	return types.Order{
		ID:            p.ID,
		ClientOrderID: p.ClientOrderID,
		Symbol:        p.Symbol,
		Side:          types.Side(p.Side),
		Qty:           qty,
		Status:        p.Status,
		Origin:        originFromClientOrderID(p.ClientOrderID),
		SubmittedAt:   p.SubmittedAt,
	}
}
