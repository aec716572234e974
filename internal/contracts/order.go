package contracts

import "time"

// Order is a broker order created by an order_target_percent instruction
// ⭐ SSOT: S6 → Broker 주문 정보 전달
type Order struct {
	ID           string    `json:"id"`
	Security     Security  `json:"security"`
	Side         OrderSide `json:"side"`
	Quantity     float64   `json:"quantity"` // always positive
	TargetWeight float64   `json:"target_weight"`
	Status       Status    `json:"status"`
	FilledPrice  float64   `json:"filled_price,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Status represents order status
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
	StatusRejected Status = "REJECTED"
)

// IsOpen reports whether the order can still fill
func (o *Order) IsOpen() bool {
	return o.Status == StatusOpen
}

// SignedQuantity is positive for buys and negative for sells
func (o *Order) SignedQuantity() float64 {
	if o.Side == OrderSideSell {
		return -o.Quantity
	}
	return o.Quantity
}
