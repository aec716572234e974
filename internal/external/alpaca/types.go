package alpaca

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// Account is the subset of the account the broker adapter needs
type Account struct {
	Equity      float64
	BuyingPower float64
	Blocked     bool
}

// Alpaca encodes decimals as JSON strings
type accountResponse struct {
	Equity         string `json:"equity"`
	BuyingPower    string `json:"buying_power"`
	TradingBlocked bool   `json:"trading_blocked"`
	AccountBlocked bool   `json:"account_blocked"`
}

func (r accountResponse) toAccount() (*Account, error) {
	equity, err := parseDecimal("equity", r.Equity)
	if err != nil {
		return nil, err
	}
	bp, err := parseDecimal("buying_power", r.BuyingPower)
	if err != nil {
		return nil, err
	}
	return &Account{Equity: equity, BuyingPower: bp, Blocked: r.TradingBlocked || r.AccountBlocked}, nil
}

type positionResponse struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	MarketValue   string `json:"market_value"`
}

func (r positionResponse) toPosition() (contracts.Position, error) {
	qty, err := parseDecimal("qty", r.Qty)
	if err != nil {
		return contracts.Position{}, err
	}
	avg, err := parseDecimal("avg_entry_price", r.AvgEntryPrice)
	if err != nil {
		return contracts.Position{}, err
	}
	mv, err := parseDecimal("market_value", r.MarketValue)
	if err != nil {
		return contracts.Position{}, err
	}
	return contracts.Position{Security: contracts.Security(r.Symbol), Quantity: qty, AvgPrice: avg, MarketValue: mv}, nil
}

type orderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

type orderResponse struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Qty            string    `json:"qty"`
	Status         string    `json:"status"`
	FilledAvgPrice string    `json:"filled_avg_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r orderResponse) toOrder() (contracts.Order, error) {
	qty, err := parseDecimal("qty", r.Qty)
	if err != nil {
		return contracts.Order{}, err
	}
	order := contracts.Order{
		ID:        r.ID,
		Security:  contracts.Security(r.Symbol),
		Side:      contracts.OrderSideBuy,
		Quantity:  qty,
		Status:    mapStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Side == "sell" {
		order.Side = contracts.OrderSideSell
	}
	if r.FilledAvgPrice != "" {
		order.FilledPrice, _ = strconv.ParseFloat(r.FilledAvgPrice, 64)
	}
	return order, nil
}

// mapStatus folds Alpaca's order lifecycle into the four contract states
func mapStatus(s string) contracts.Status {
	switch s {
	case "filled":
		return contracts.StatusFilled
	case "canceled", "expired", "replaced", "done_for_day":
		return contracts.StatusCanceled
	case "rejected", "suspended", "stopped":
		return contracts.StatusRejected
	default:
		return contracts.StatusOpen
	}
}

type assetResponse struct {
	Symbol   string `json:"symbol"`
	Status   string `json:"status"`
	Tradable bool   `json:"tradable"`
}

type latestTradeResponse struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Price float64   `json:"p"`
		Time  time.Time `json:"t"`
	} `json:"trade"`
}

func parseDecimal(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
