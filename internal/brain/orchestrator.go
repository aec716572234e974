package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/execution"
	"github.com/wonny/aegis/momentum/internal/portfolio"
	"github.com/wonny/aegis/momentum/internal/s0_data"
	"github.com/wonny/aegis/momentum/internal/s1_universe"
	"github.com/wonny/aegis/momentum/internal/s2_signals"
	"github.com/wonny/aegis/momentum/internal/selection"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Observer is notified after every cycle (metrics, websocket subscribers)
type Observer interface {
	ObserveCycle(report *contracts.CycleReport)
}

// Deps are the collaborators of one orchestrator
type Deps struct {
	Market       contracts.MarketData
	Fundamentals contracts.Fundamentals // nil: every fundamentals value is unknown
	Broker       contracts.Broker
	Repository   contracts.CycleRepository // nil: reports are not persisted
}

// Orchestrator coordinates S0 through S6 for one session
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	mu sync.Mutex

	cfg        *strategyconfig.Config
	configHash string

	snapshots   *s0_data.SnapshotBuilder
	momentumU   *s1_universe.Builder
	shortU      *s1_universe.Builder
	signals     *s2_signals.Builder
	ranker      *selection.Ranker
	constructor *portfolio.Constructor
	dispatcher  *execution.Dispatcher
	broker      contracts.Broker
	repository  contracts.CycleRepository
	observers   []Observer
	now         func() time.Time

	logger *logger.Logger
}

// NewOrchestrator wires every stage from the strategy config
func NewOrchestrator(cfg *strategyconfig.Config, deps Deps, log *logger.Logger) (*Orchestrator, error) {
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	return &Orchestrator{
		cfg:         cfg,
		configHash:  hash,
		snapshots:   s0_data.NewSnapshotBuilder(deps.Market, deps.Fundamentals, log),
		momentumU:   s1_universe.MomentumBuilder(cfg.Universe, log),
		shortU:      s1_universe.ShortHorizonBuilder(cfg, log),
		signals:     s2_signals.NewBuilder(cfg.Signals, log),
		ranker:      selection.NewRanker(cfg.Ranking, log),
		constructor: portfolio.NewConstructor(cfg.Allocation, log),
		dispatcher:  execution.NewDispatcher(deps.Broker, cfg.Execution.OrdersPerSecond, log),
		broker:      deps.Broker,
		repository:  deps.Repository,
		now:         time.Now,
		logger:      log.Component("brain"),
	}, nil
}

// AddObserver registers a cycle observer
func (o *Orchestrator) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// ConfigHash returns the hash recorded on every report
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// Config returns the strategy config in use
func (o *Orchestrator) Config() *strategyconfig.Config {
	return o.cfg
}

// Cycle runs one session. When the date rule says this session does not rebalance the
// report has Rebalanced=false and nothing is ordered. Cycles never overlap.
// A cycle that fails before its orders are all dispatched leaves st untouched.
func (o *Orchestrator) Cycle(ctx context.Context, session time.Time, st *State) (*contracts.CycleReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := &contracts.CycleReport{
		RunID:       uuid.NewString(),
		Date:        session,
		Mode:        o.cfg.StrategyMode(),
		ConfigHash:  o.configHash,
		Targets:     []contracts.TargetPosition{},
		Emitted:     []contracts.Security{},
		Deferred:    []contracts.Security{},
		Untradeable: []contracts.Security{},
		StartedAt:   o.now(),
	}

	if !ShouldRebalance(o.cfg.Schedule.DateRule, st.LastRebalance, session) {
		report.FinishedAt = o.now()
		o.logger.WithFields(map[string]interface{}{
			"date":           session.Format("2006-01-02"),
			"date_rule":      o.cfg.Schedule.DateRule,
			"last_rebalance": st.LastRebalance.Format("2006-01-02"),
		}).Debug("Date rule skipped session")
		return report, nil
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"date":   session.Format("2006-01-02"),
		"mode":   report.Mode,
	}).Info("Starting cycle")

	// S0
	snap, err := o.snapshots.Build(ctx, session, o.cfg.HistoryDays(), s1_universe.FundamentalMetrics(o.cfg.Universe))
	if err != nil {
		return nil, fmt.Errorf("S0 failed: %w", err)
	}
	report.Evaluated = len(snap.Securities)

	holdings, err := o.broker.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	// S1-S5 stage state changes on a copy
	next := st.clone()
	var target *contracts.TargetPortfolio
	switch report.Mode {
	case contracts.ModeMeanReversion:
		target = o.meanReversion(snap, holdings, report)
	case contracts.ModeReversal:
		target = o.reversal(snap, holdings, next, report)
	default:
		target = o.momentum(snap, holdings, report)
	}
	report.Targets = target.Positions

	// S6
	dispatched, err := o.dispatcher.Dispatch(ctx, target)
	if dispatched != nil {
		report.Emitted = dispatched.Emitted
		report.Deferred = dispatched.Deferred
		report.Untradeable = dispatched.Untradeable
	}
	if err != nil {
		return report, fmt.Errorf("S6 failed: %w", err)
	}

	report.Rebalanced = true
	report.FinishedAt = o.now()
	next.LastRebalance = session
	next.LastReport = report
	*st = *next

	if o.repository != nil {
		if err := o.repository.SaveCycle(ctx, report); err != nil {
			return report, fmt.Errorf("save cycle: %w", err)
		}
	}
	for _, obs := range o.observers {
		obs.ObserveCycle(report)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      report.RunID,
		"evaluated":   report.Evaluated,
		"eligible":    report.Eligible,
		"longs":       len(report.Selection.Longs),
		"shorts":      len(report.Selection.Shorts),
		"emitted":     len(report.Emitted),
		"deferred":    len(report.Deferred),
		"untradeable": len(report.Untradeable),
		"duration":    report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Cycle completed")

	return report, nil
}

func (o *Orchestrator) momentum(snap *contracts.MarketSnapshot, holdings map[contracts.Security]contracts.Position, report *contracts.CycleReport) *contracts.TargetPortfolio {
	universe := o.momentumU.Build(snap)
	frame := o.signals.Build(snap, universe)
	report.Eligible = frame.Count()

	report.Selection = o.ranker.Select(snap.Date, o.ranker.Rank(frame))
	return o.constructor.Allocate(report.Selection, holdings)
}

func (o *Orchestrator) meanReversion(snap *contracts.MarketSnapshot, holdings map[contracts.Security]contracts.Position, report *contracts.CycleReport) *contracts.TargetPortfolio {
	universe := o.shortU.Build(snap)
	returns := o.signals.BuildReturns(snap, universe)
	report.Eligible = len(returns.Returns)

	dollarVolume := make(map[contracts.Security]float64, universe.Count())
	for _, sec := range universe.Securities {
		if adv, ok := s1_universe.AverageDollarVolume(snap.Closes[sec], snap.Volumes[sec], 1); ok {
			dollarVolume[sec] = adv
		}
	}

	report.Selection = selection.MeanReversion(snap.Date, dollarVolume, returns.Returns, o.cfg.Ranking.MeanReversion)
	return o.constructor.Allocate(report.Selection, holdings)
}

func (o *Orchestrator) reversal(snap *contracts.MarketSnapshot, holdings map[contracts.Security]contracts.Position, st *State, report *contracts.CycleReport) *contracts.TargetPortfolio {
	universe := o.shortU.Build(snap)
	returns := o.signals.BuildReturns(snap, universe)
	report.Eligible = len(returns.Returns)

	picks := selection.Reversal(snap.Date, returns.Returns, o.cfg.Signals.Reversal.Quantiles)
	st.LongHold.Update(picks.Longs, o.cfg.Hold.DaysToHold, o.cfg.Hold.MaxDaysToHold)
	st.ShortHold.Update(picks.Shorts, o.cfg.Hold.DaysToHold, o.cfg.Hold.MaxDaysToHold)

	report.Selection = selection.Disjoint(snap.Date, st.LongHold.Held(), st.ShortHold.Held())
	return o.constructor.AllocateCapped(report.Selection, holdings)
}

// CancelOpenOrders cancels every open order (end of session)
func (o *Orchestrator) CancelOpenOrders(ctx context.Context) (int, error) {
	return o.dispatcher.CancelOpenOrders(ctx)
}
