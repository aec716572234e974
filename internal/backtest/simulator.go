package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/execution"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Simulator prices the paper broker from stored closes, one session at a time
// ⭐ SSOT: 백테스팅 시뮬레이션은 여기서만
type Simulator struct {
	market contracts.MarketData
	broker *execution.PaperBroker
	logger *logger.Logger

	// Statistics
	totalTrades     int
	buyTrades       int
	sellTrades      int
	totalCommission float64
	totalSlippage   float64
}

// Stats holds simulation statistics
type Stats struct {
	TotalTrades     int     `json:"total_trades"`
	BuyTrades       int     `json:"buy_trades"`
	SellTrades      int     `json:"sell_trades"`
	TotalCommission float64 `json:"total_commission"`
	TotalSlippage   float64 `json:"total_slippage"`
}

// NewSimulator creates a simulator over the broker the orchestrator trades with
func NewSimulator(market contracts.MarketData, broker *execution.PaperBroker, log *logger.Logger) *Simulator {
	return &Simulator{
		market: market,
		broker: broker,
		logger: log.Component("backtest_simulator"),
	}
}

// Broker returns the simulated account
func (s *Simulator) Broker() *execution.PaperBroker {
	return s.broker
}

// Open marks the account at the session's closes and stamps orders with the session
func (s *Simulator) Open(ctx context.Context, session time.Time) (map[contracts.Security]float64, error) {
	prices, err := s.ClosePrices(ctx, session)
	if err != nil {
		return nil, err
	}
	s.broker.SetClock(func() time.Time { return session })
	s.broker.Mark(prices)
	return prices, nil
}

// Close fills resting orders at the session's closes and records costs
func (s *Simulator) Close(prices map[contracts.Security]float64) []execution.Fill {
	fills := s.broker.Settle(prices)
	for _, f := range fills {
		s.totalTrades++
		if f.Order.Side == contracts.OrderSideBuy {
			s.buyTrades++
		} else {
			s.sellTrades++
		}
		s.totalCommission += f.Commission
		s.totalSlippage += math.Abs(f.Price-prices[f.Order.Security]) * f.Order.Quantity
	}
	return fills
}

// ClosePrices returns every security's close on exactly this session.
// Securities without a bar that day are left out.
func (s *Simulator) ClosePrices(ctx context.Context, session time.Time) (map[contracts.Security]float64, error) {
	secs, err := s.market.Securities(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("list securities: %w", err)
	}

	prices := make(map[contracts.Security]float64, len(secs))
	for _, sec := range secs {
		series, err := s.market.History(ctx, sec, contracts.FieldClose, 1, contracts.FrequencyDaily, session)
		if err != nil {
			return nil, fmt.Errorf("close %s: %w", sec, err)
		}
		last, ok := series.Last()
		if !ok || !last.Date.Equal(session) || last.Value <= 0 || math.IsNaN(last.Value) {
			continue
		}
		prices[sec] = last.Value
	}
	return prices, nil
}

// GetStats returns simulation statistics
func (s *Simulator) GetStats() Stats {
	return Stats{
		TotalTrades:     s.totalTrades,
		BuyTrades:       s.buyTrades,
		SellTrades:      s.sellTrades,
		TotalCommission: s.totalCommission,
		TotalSlippage:   s.totalSlippage,
	}
}
