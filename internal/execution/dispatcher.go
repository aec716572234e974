package execution

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// DispatchReport is what one Dispatch did with each instruction
type DispatchReport struct {
	Orders      []contracts.Order    `json:"orders"`
	Emitted     []contracts.Security `json:"emitted"`
	Unchanged   []contracts.Security `json:"unchanged"` // target already met
	Deferred    []contracts.Security `json:"deferred"`
	Untradeable []contracts.Security `json:"untradeable"`
}

// Dispatcher implements S6: turn target weights into broker orders
// ⭐ SSOT: S6 주문 실행은 여기서만
type Dispatcher struct {
	broker  contracts.Broker
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewDispatcher paces order submissions at ordersPerSecond
func NewDispatcher(broker contracts.Broker, ordersPerSecond float64, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		broker:  broker,
		limiter: rate.NewLimiter(rate.Limit(ordersPerSecond), 1),
		logger:  log.Component("execution"),
	}
}

// Dispatch walks the target in order (longs, shorts, liquidations). A security with an open
// order is deferred, one the broker cannot trade is skipped, and everything else gets
// order_target_percent. Broker failures stop the walk and return the partial report.
func (d *Dispatcher) Dispatch(ctx context.Context, target *contracts.TargetPortfolio) (*DispatchReport, error) {
	report := &DispatchReport{
		Orders:      []contracts.Order{},
		Emitted:     []contracts.Security{},
		Unchanged:   []contracts.Security{},
		Deferred:    []contracts.Security{},
		Untradeable: []contracts.Security{},
	}

	open, err := d.broker.OpenOrders(ctx)
	if err != nil {
		return report, fmt.Errorf("list open orders: %w", err)
	}

	for _, pos := range target.Positions {
		if len(open[pos.Security]) > 0 {
			report.Deferred = append(report.Deferred, pos.Security)
			continue
		}

		ok, err := d.broker.CanTrade(ctx, pos.Security)
		if err != nil {
			return report, fmt.Errorf("can_trade %s: %w", pos.Security, err)
		}
		if !ok {
			report.Untradeable = append(report.Untradeable, pos.Security)
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("order pacing: %w", err)
		}
		order, err := d.broker.OrderTargetPercent(ctx, pos.Security, pos.Weight)
		if err != nil {
			return report, fmt.Errorf("order_target_percent %s %.4f: %w", pos.Security, pos.Weight, err)
		}
		if order == nil {
			report.Unchanged = append(report.Unchanged, pos.Security)
			continue
		}
		report.Orders = append(report.Orders, *order)
		report.Emitted = append(report.Emitted, pos.Security)
	}

	d.logger.WithFields(map[string]interface{}{
		"instructions": target.Count(),
		"emitted":      len(report.Emitted),
		"unchanged":    len(report.Unchanged),
		"deferred":     len(report.Deferred),
		"untradeable":  len(report.Untradeable),
	}).Info("S6 dispatch complete")

	return report, nil
}

// CancelOpenOrders cancels every open order and returns how many were canceled
func (d *Dispatcher) CancelOpenOrders(ctx context.Context) (int, error) {
	open, err := d.broker.OpenOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open orders: %w", err)
	}

	secs := make([]contracts.Security, 0, len(open))
	for sec := range open {
		secs = append(secs, sec)
	}

	canceled := 0
	for _, sec := range contracts.SortSecurities(secs) {
		for _, order := range open[sec] {
			if err := d.broker.Cancel(ctx, order); err != nil {
				return canceled, fmt.Errorf("cancel %s order %s: %w", sec, order.ID, err)
			}
			canceled++
		}
	}

	d.logger.WithField("canceled", canceled).Info("Open orders canceled")
	return canceled, nil
}
