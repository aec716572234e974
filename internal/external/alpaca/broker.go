package alpaca

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// OpenOrders lists open orders grouped by security
func (c *Client) OpenOrders(ctx context.Context) (map[contracts.Security][]contracts.Order, error) {
	var raw []orderResponse
	if err := c.trading(ctx, http.MethodGet, "/v2/orders?status=open&limit=500", nil, &raw); err != nil {
		return nil, fmt.Errorf("open orders request: %w", err)
	}

	out := make(map[contracts.Security][]contracts.Order)
	for _, r := range raw {
		o, err := r.toOrder()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", r.ID, err)
		}
		out[o.Security] = append(out[o.Security], o)
	}
	return out, nil
}

// Cancel cancels one order. An order that is already gone is not an error.
func (c *Client) Cancel(ctx context.Context, order contracts.Order) error {
	err := c.trading(ctx, http.MethodDelete, "/v2/orders/"+url.PathEscape(order.ID), nil, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("cancel order %s: %w", order.ID, err)
	}
	return nil
}

// CanTrade is true for an active, tradable asset
func (c *Client) CanTrade(ctx context.Context, sec contracts.Security) (bool, error) {
	var asset assetResponse
	err := c.trading(ctx, http.MethodGet, "/v2/assets/"+url.PathEscape(string(sec)), nil, &asset)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("asset %s: %w", sec, err)
	}
	return asset.Tradable && asset.Status == "active", nil
}

// Positions lists every open position
func (c *Client) Positions(ctx context.Context) (map[contracts.Security]contracts.Position, error) {
	var raw []positionResponse
	if err := c.trading(ctx, http.MethodGet, "/v2/positions", nil, &raw); err != nil {
		return nil, fmt.Errorf("positions request: %w", err)
	}

	out := make(map[contracts.Security]contracts.Position, len(raw))
	for _, r := range raw {
		p, err := r.toPosition()
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", r.Symbol, err)
		}
		out[p.Security] = p
	}
	return out, nil
}

// OrderTargetPercent sizes a market day order against account equity and the latest trade price
func (c *Client) OrderTargetPercent(ctx context.Context, sec contracts.Security, weight float64) (*contracts.Order, error) {
	account, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}

	held, err := c.heldQuantity(ctx, sec)
	if err != nil {
		return nil, err
	}

	price, err := c.LatestPrice(ctx, sec)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, fmt.Errorf("latest price %s: non-positive %.4f", sec, price)
	}

	delta := math.Trunc(weight*account.Equity/price) - held
	if delta == 0 {
		return nil, nil
	}

	req := orderRequest{
		Symbol:      string(sec),
		Qty:         strconv.FormatFloat(math.Abs(delta), 'f', -1, 64),
		Side:        "buy",
		Type:        "market",
		TimeInForce: "day",
	}
	if delta < 0 {
		req.Side = "sell"
	}

	var raw orderResponse
	if err := c.trading(ctx, http.MethodPost, "/v2/orders", req, &raw); err != nil {
		return nil, fmt.Errorf("submit order %s: %w", sec, err)
	}
	order, err := raw.toOrder()
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", raw.ID, err)
	}
	order.TargetWeight = weight

	c.logger.WithFields(map[string]interface{}{
		"security": sec,
		"side":     order.Side,
		"qty":      order.Quantity,
		"weight":   weight,
		"order_id": order.ID,
	}).Info("Order submitted")

	return &order, nil
}

// LatestPrice returns the last trade price from the market data API
func (c *Client) LatestPrice(ctx context.Context, sec contracts.Security) (float64, error) {
	var raw latestTradeResponse
	if err := c.data(ctx, "/v2/stocks/"+url.PathEscape(string(sec))+"/trades/latest", &raw); err != nil {
		return 0, fmt.Errorf("latest trade %s: %w", sec, err)
	}
	return raw.Trade.Price, nil
}

func (c *Client) heldQuantity(ctx context.Context, sec contracts.Security) (float64, error) {
	var raw positionResponse
	err := c.trading(ctx, http.MethodGet, "/v2/positions/"+url.PathEscape(string(sec)), nil, &raw)
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("position %s: %w", sec, err)
	}
	p, err := raw.toPosition()
	if err != nil {
		return 0, fmt.Errorf("position %s: %w", sec, err)
	}
	return p.Quantity, nil
}
