package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/aegis/momentum/internal/brain"
	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/risk"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

const (
	// TradingDaysPerYear annualises daily statistics
	TradingDaysPerYear = 252
	// VaRConfidence is the level of the reported daily VaR
	VaRConfidence = 0.95
)

// ErrNoSessions is returned when the requested range holds no session
var ErrNoSessions = errors.New("no sessions in range")

// Engine replays stored sessions through the orchestrator
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	orchestrator *brain.Orchestrator
	simulator    *Simulator
	logger       *logger.Logger
}

// Result holds backtest results
type Result struct {
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	Duration       time.Duration `json:"duration"`
	TradingDays    int           `json:"trading_days"`
	RebalanceCount int           `json:"rebalance_count"`

	// Performance metrics
	InitialCapital   float64 `json:"initial_capital"`
	FinalEquity      float64 `json:"final_equity"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`

	// Daily loss estimates
	HistoricalVaR risk.VaRResult `json:"historical_var"`
	ParametricVaR risk.VaRResult `json:"parametric_var"`

	// Trading metrics
	Stats Stats `json:"stats"`

	// Equity curve
	EquityCurve []EquityPoint `json:"equity_curve"`

	// Rebalancing cycles only
	Reports []*contracts.CycleReport `json:"reports"`
}

// EquityPoint is the account value after one session's fills
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
	Return float64   `json:"return"` // cumulative since start
}

// NewEngine creates a new backtest engine. The orchestrator must trade against
// simulator.Broker().
func NewEngine(orchestrator *brain.Orchestrator, simulator *Simulator, log *logger.Logger) *Engine {
	return &Engine{
		orchestrator: orchestrator,
		simulator:    simulator,
		logger:       log.Component("backtest"),
	}
}

// SessionsBetween filters sessions to [from, to]; a zero bound is open
func SessionsBetween(sessions []time.Time, from, to time.Time) []time.Time {
	out := make([]time.Time, 0, len(sessions))
	for _, d := range sessions {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Run replays the sessions in order. Each session: mark at the close, run the cycle,
// fill at the close, cancel whatever is still open.
func (e *Engine) Run(ctx context.Context, sessions []time.Time, st *brain.State) (*Result, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	broker := e.simulator.Broker()
	result := &Result{
		StartDate:      sessions[0],
		EndDate:        sessions[len(sessions)-1],
		InitialCapital: broker.Equity(),
		EquityCurve:    make([]EquityPoint, 0, len(sessions)),
		Reports:        make([]*contracts.CycleReport, 0),
	}

	e.logger.WithFields(map[string]interface{}{
		"start_date":      result.StartDate.Format("2006-01-02"),
		"end_date":        result.EndDate.Format("2006-01-02"),
		"sessions":        len(sessions),
		"initial_capital": result.InitialCapital,
	}).Info("Starting backtest")

	startTime := time.Now()

	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := e.simulator.Open(ctx, session)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", session.Format("2006-01-02"), err)
		}

		report, err := e.orchestrator.Cycle(ctx, session, st)
		if err != nil {
			return nil, fmt.Errorf("cycle %s: %w", session.Format("2006-01-02"), err)
		}
		if report.Rebalanced {
			result.RebalanceCount++
			result.Reports = append(result.Reports, report)
		}

		e.simulator.Close(prices)
		if _, err := e.orchestrator.CancelOpenOrders(ctx); err != nil {
			return nil, fmt.Errorf("cancel %s: %w", session.Format("2006-01-02"), err)
		}

		equity := broker.Equity()
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Date:   session,
			Equity: equity,
			Return: equity/result.InitialCapital - 1,
		})
	}

	result.Duration = time.Since(startTime)
	result.TradingDays = len(sessions)
	result.FinalEquity = broker.Equity()
	result.Stats = e.simulator.GetStats()

	calculateMetrics(result)

	e.logger.WithFields(map[string]interface{}{
		"duration":     result.Duration.Seconds(),
		"trading_days": result.TradingDays,
		"rebalances":   result.RebalanceCount,
		"trades":       result.Stats.TotalTrades,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn*100),
		"sharpe_ratio": fmt.Sprintf("%.2f", result.SharpeRatio),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

// calculateMetrics fills the performance metrics from the equity curve
func calculateMetrics(result *Result) {
	if len(result.EquityCurve) == 0 || result.InitialCapital == 0 {
		return
	}

	result.TotalReturn = result.FinalEquity/result.InitialCapital - 1

	returns := DailyReturns(result.InitialCapital, result.EquityCurve)
	mean := meanOf(returns)
	result.AnnualizedReturn = mean * TradingDaysPerYear
	result.Volatility = stdDev(returns) * math.Sqrt(TradingDaysPerYear)
	result.SharpeRatio = SharpeRatio(returns)

	// Sortino: downside deviation only
	downside := make([]float64, 0)
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if dd := stdDev(downside) * math.Sqrt(TradingDaysPerYear); dd > 0 {
		result.SortinoRatio = result.AnnualizedReturn / dd
	}

	result.MaxDrawdown = MaxDrawdown(result.EquityCurve)
	result.HistoricalVaR = risk.HistoricalVaR(returns, VaRConfidence)
	result.ParametricVaR = risk.ParametricVaR(mean, stdDev(returns), VaRConfidence)
}

// DailyReturns converts the curve to session-over-session returns, the first
// against the initial capital
func DailyReturns(initial float64, curve []EquityPoint) []float64 {
	returns := make([]float64, 0, len(curve))
	prev := initial
	for _, p := range curve {
		if prev != 0 {
			returns = append(returns, p.Equity/prev-1)
		}
		prev = p.Equity
	}
	return returns
}

// SharpeRatio annualises mean over standard deviation of daily returns (risk-free 0)
func SharpeRatio(returns []float64) float64 {
	sd := stdDev(returns)
	if sd == 0 {
		return 0
	}
	return meanOf(returns) / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown is the largest peak-to-trough fall, as a fraction of the peak
func MaxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := curve[0].Equity

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}

		drawdown := (peak - point.Equity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := meanOf(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}
