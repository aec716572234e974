package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// ErrNoPrice is returned when sizing an order for a security without a marked price
var ErrNoPrice = errors.New("no price for security")

// ErrUnknownOrder is returned when canceling an order that is not open
var ErrUnknownOrder = errors.New("unknown or closed order")

// PaperCosts are the simulated trading costs
type PaperCosts struct {
	CommissionPerShare float64
	SlippageBps        float64
}

// Fill is one executed paper order
type Fill struct {
	Order      contracts.Order `json:"order"`
	Price      float64         `json:"price"`
	Commission float64         `json:"commission"`
	FilledAt   time.Time       `json:"filled_at"`
}

// PaperBroker is an in-process broker. Orders rest until Settle fills them.
// ⭐ 실제 운영에서는 Alpaca Broker 사용
type PaperBroker struct {
	mu        sync.Mutex
	cash      float64
	positions map[contracts.Security]*contracts.Position
	open      []contracts.Order
	prices    map[contracts.Security]float64
	halted    map[contracts.Security]bool
	fills     []Fill
	costs     PaperCosts
	now       func() time.Time
	logger    *logger.Logger
}

// NewPaperBroker creates a paper account holding only cash
func NewPaperBroker(capital float64, costs PaperCosts, log *logger.Logger) *PaperBroker {
	return &PaperBroker{
		cash:      capital,
		positions: make(map[contracts.Security]*contracts.Position),
		prices:    make(map[contracts.Security]float64),
		halted:    make(map[contracts.Security]bool),
		costs:     costs,
		now:       time.Now,
		logger:    log.Component("paper_broker"),
	}
}

// SetClock overrides the order timestamp source
func (b *PaperBroker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Mark sets the prices used for sizing and valuation. Securities absent from prices keep their last mark.
func (b *PaperBroker) Mark(prices map[contracts.Security]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sec, p := range prices {
		if p > 0 {
			b.prices[sec] = p
		}
	}
	for sec, pos := range b.positions {
		if p, ok := b.prices[sec]; ok {
			pos.MarketValue = pos.Quantity * p
		}
	}
}

// Halt marks a security untradeable (or tradeable again)
func (b *PaperBroker) Halt(sec contracts.Security, halted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halted[sec] = halted
}

// OpenOrders returns open orders grouped by security
func (b *PaperBroker) OpenOrders(_ context.Context) (map[contracts.Security][]contracts.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[contracts.Security][]contracts.Order)
	for _, o := range b.open {
		out[o.Security] = append(out[o.Security], o)
	}
	return out, nil
}

// Cancel removes an open order
func (b *PaperBroker) Cancel(_ context.Context, order contracts.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, o := range b.open {
		if o.ID == order.ID {
			b.open = append(b.open[:i], b.open[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cancel %s: %w", order.ID, ErrUnknownOrder)
}

// CanTrade is true for a priced, non-halted security
func (b *PaperBroker) CanTrade(_ context.Context, sec contracts.Security) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, priced := b.prices[sec]
	return priced && !b.halted[sec], nil
}

// Positions returns non-zero positions
func (b *PaperBroker) Positions(_ context.Context) (map[contracts.Security]contracts.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[contracts.Security]contracts.Position, len(b.positions))
	for sec, pos := range b.positions {
		out[sec] = *pos
	}
	return out, nil
}

// OrderTargetPercent orders the whole-share difference between the held quantity and
// weight * equity / price. Open orders are not netted.
func (b *PaperBroker) OrderTargetPercent(_ context.Context, sec contracts.Security, weight float64) (*contracts.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	price, ok := b.prices[sec]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", sec, ErrNoPrice)
	}

	held := 0.0
	if pos, ok := b.positions[sec]; ok {
		held = pos.Quantity
	}
	target := math.Trunc(weight * b.equityLocked() / price)
	delta := target - held
	if delta == 0 {
		return nil, nil
	}

	now := b.now()
	order := contracts.Order{
		ID:           uuid.NewString(),
		Security:     sec,
		Side:         contracts.OrderSideBuy,
		Quantity:     math.Abs(delta),
		TargetWeight: weight,
		Status:       contracts.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if delta < 0 {
		order.Side = contracts.OrderSideSell
	}
	b.open = append(b.open, order)
	return &order, nil
}

// Settle fills every open order of a priced security at that price plus slippage.
// Orders without a price stay open.
func (b *PaperBroker) Settle(prices map[contracts.Security]float64) []Fill {
	b.mu.Lock()
	defer b.mu.Unlock()

	var fills []Fill
	remaining := b.open[:0]
	for _, o := range b.open {
		price, ok := prices[o.Security]
		if !ok || price <= 0 {
			remaining = append(remaining, o)
			continue
		}
		fills = append(fills, b.fillLocked(o, price))
	}
	b.open = remaining
	b.fills = append(b.fills, fills...)

	if len(fills) > 0 {
		b.logger.WithFields(map[string]interface{}{
			"filled": len(fills),
			"open":   len(b.open),
			"cash":   b.cash,
		}).Debug("Paper orders settled")
	}
	return fills
}

func (b *PaperBroker) fillLocked(o contracts.Order, price float64) Fill {
	slip := price * b.costs.SlippageBps / 10_000
	if o.Side == contracts.OrderSideBuy {
		price += slip
	} else {
		price -= slip
	}
	commission := o.Quantity * b.costs.CommissionPerShare
	qty := o.SignedQuantity()

	b.cash -= qty*price + commission

	pos, ok := b.positions[o.Security]
	if !ok {
		pos = &contracts.Position{Security: o.Security}
		b.positions[o.Security] = pos
	}
	newQty := pos.Quantity + qty
	switch {
	case newQty == 0:
		delete(b.positions, o.Security)
	case pos.Quantity == 0 || (pos.Quantity > 0) != (newQty > 0):
		pos.AvgPrice = price
	case (pos.Quantity > 0) == (qty > 0):
		pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*qty) / newQty
	}
	pos.Quantity = newQty
	pos.MarketValue = newQty * price

	o.Status = contracts.StatusFilled
	o.FilledPrice = price
	o.UpdatedAt = b.now()
	return Fill{Order: o, Price: price, Commission: commission, FilledAt: o.UpdatedAt}
}

// Cash returns the cash balance (negative when levered)
func (b *PaperBroker) Cash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// Equity is cash plus the marked value of every position
func (b *PaperBroker) Equity() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.equityLocked()
}

func (b *PaperBroker) equityLocked() float64 {
	equity := b.cash
	for sec, pos := range b.positions {
		price, ok := b.prices[sec]
		if !ok {
			price = pos.AvgPrice
		}
		equity += pos.Quantity * price
	}
	return equity
}

// Fills returns every fill so far
func (b *PaperBroker) Fills() []Fill {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Fill(nil), b.fills...)
}
