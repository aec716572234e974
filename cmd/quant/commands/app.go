package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis/momentum/internal/backtest"
	"github.com/wonny/aegis/momentum/internal/brain"
	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/execution"
	"github.com/wonny/aegis/momentum/internal/external/alpaca"
	"github.com/wonny/aegis/momentum/internal/metrics"
	"github.com/wonny/aegis/momentum/internal/s0_data"
	"github.com/wonny/aegis/momentum/internal/scheduler"
	"github.com/wonny/aegis/momentum/internal/scheduler/jobs"
	"github.com/wonny/aegis/momentum/internal/selection"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/config"
	"github.com/wonny/aegis/momentum/pkg/database"
	"github.com/wonny/aegis/momentum/pkg/logger"
	"github.com/wonny/aegis/momentum/pkg/redis"
)

// app holds every collaborator a command may need
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger

	db    *database.DB
	redis *redis.Client

	prices       *s0_data.PriceRepository // postgres only
	store        *s0_data.MemoryStore     // csv only
	market       contracts.MarketData
	fundamentals contracts.Fundamentals

	broker     contracts.Broker
	paper      *execution.PaperBroker // BROKER=paper only
	repository contracts.CycleRepository

	orchestrator *brain.Orchestrator
	state        *brain.State
	metrics      *metrics.Collector
}

// loadSettings reads the environment and the strategy YAML
func loadSettings() (*config.Config, *strategyconfig.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyConfig = strategyFile
	}

	log := logger.New(cfg)

	strategy, err := strategyconfig.Load(cfg.StrategyConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return cfg, strategy, log, nil
}

// newDataApp connects only the data source
func newDataApp(ctx context.Context) (*app, error) {
	cfg, strategy, log, err := loadSettings()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, strategy: strategy, log: log}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if err := a.openData(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.warnIfNoEarningsCalendar(ctx)
	return a, nil
}

// warnIfNoEarningsCalendar flags an enabled earnings guard over a source without earnings dates
func (a *app) warnIfNoEarningsCalendar(ctx context.Context) bool {
	if !a.strategy.Universe.Earnings.Enable || a.fundamentals == nil {
		return false
	}
	missing, err := s0_data.MissingEarningsCalendar(ctx, a.fundamentals)
	if err != nil {
		a.log.WithError(err).Warn("Could not check earnings calendar")
		return false
	}
	if missing {
		a.log.WithFields(map[string]interface{}{
			"code":        "EARNINGS_CALENDAR_EMPTY",
			"data_source": a.cfg.DataSource,
		}).Warn("Earnings guard is enabled but the data source has no earnings dates; every security will be excluded")
	}
	return missing
}

// newApp connects the data source and broker and builds the orchestrator
func newApp(ctx context.Context) (*app, error) {
	a, err := newDataApp(ctx)
	if err != nil {
		return nil, err
	}
	cfg, strategy, log := a.cfg, a.strategy, a.log

	switch cfg.Broker {
	case "alpaca":
		a.broker = alpaca.NewClient(cfg.Alpaca, a.redis, log)
	default:
		a.paper = execution.NewPaperBroker(strategy.Backtest.InitialCapital, execution.PaperCosts{
			CommissionPerShare: strategy.Backtest.CommissionPerShare,
			SlippageBps:        strategy.Backtest.SlippageBps,
		}, log)
		a.broker = a.paper
	}

	a.orchestrator, err = brain.NewOrchestrator(strategy, brain.Deps{
		Market:       a.market,
		Fundamentals: a.fundamentals,
		Broker:       a.broker,
		Repository:   a.repository,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	a.state = brain.NewState(strategy)

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
		a.orchestrator.AddObserver(a.metrics)
	}

	log.WithFields(map[string]interface{}{
		"data_source": cfg.DataSource,
		"broker":      cfg.Broker,
		"mode":        strategy.Schedule.Mode,
		"config_hash": a.orchestrator.ConfigHash(),
	}).Info("Application wired")

	return a, nil
}

func (a *app) openData(ctx context.Context) error {
	switch a.cfg.DataSource {
	case "csv":
		store, err := s0_data.NewCSVLoader(a.cfg.DataDir, a.log).Load()
		if err != nil {
			return fmt.Errorf("load csv data: %w", err)
		}
		a.store = store
		a.market = store
		a.fundamentals = store
		a.repository = selection.NewMemoryRepository(500)
		return nil

	default:
		db, err := database.New(ctx, a.cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		a.prices = s0_data.NewPriceRepository(db.Pool)
		a.market = s0_data.NewCachedMarketData(a.prices, a.redis, a.cfg.Redis.CacheTTL, a.log)
		a.fundamentals = s0_data.NewFundamentalRepository(db.Pool)
		a.repository = selection.NewRepository(db.Pool)
		return nil
	}
}

// sessions lists the stored trade dates in [from, to]
func (a *app) sessions(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	if a.store != nil {
		return backtest.SessionsBetween(a.store.Sessions(), from, to), nil
	}
	return a.prices.Sessions(ctx, from, to)
}

// latestPrices reads every security's last close on or before session
func (a *app) latestPrices(ctx context.Context, session time.Time) (map[contracts.Security]float64, error) {
	secs, err := a.market.Securities(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("list securities: %w", err)
	}
	prices := make(map[contracts.Security]float64, len(secs))
	for _, sec := range secs {
		p, err := a.market.Current(ctx, sec, contracts.FieldClose, session)
		if err != nil {
			continue
		}
		prices[sec] = p
	}
	return prices, nil
}

// paperSession marks the paper account before a cycle
type paperSession struct {
	a *app
}

func (p paperSession) Cycle(ctx context.Context, session time.Time, st *brain.State) (*contracts.CycleReport, error) {
	prices, err := p.a.latestPrices(ctx, session)
	if err != nil {
		return nil, err
	}
	p.a.paper.Mark(prices)
	return p.a.orchestrator.Cycle(ctx, session, st)
}

// CancelOpenOrders fills what the paper account can price, then cancels the rest
func (p paperSession) CancelOpenOrders(ctx context.Context) (int, error) {
	prices, err := p.a.latestPrices(ctx, jobs.SessionDate(time.Now(), p.a.strategy.Location()))
	if err != nil {
		return 0, err
	}
	fills := p.a.paper.Settle(prices)
	p.a.log.WithFields(map[string]interface{}{
		"filled": len(fills),
		"equity": p.a.paper.Equity(),
	}).Info("Paper session settled")
	return p.a.orchestrator.CancelOpenOrders(ctx)
}

// runner returns what the rebalance job drives
func (a *app) runner() jobs.CycleRunner {
	if a.paper != nil {
		return paperSession{a}
	}
	return a.orchestrator
}

// canceler returns what the cancel job drives
func (a *app) canceler() jobs.OrderCanceler {
	if a.paper != nil {
		return paperSession{a}
	}
	return a.orchestrator
}

// newScheduler registers the rebalance and cancel jobs in the exchange zone
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	loc := a.strategy.Location()
	// broker and data failures are reported as a failed run, not retried
	sched := scheduler.New(loc, a.log).WithRetry(0, 0)

	rebalance, err := jobs.NewRebalanceJob(a.runner(), a.state, a.strategy.Schedule.RebalanceTime, loc, a.log)
	if err != nil {
		return nil, err
	}
	cancel, err := jobs.NewCancelOrdersJob(a.canceler(), a.strategy.Schedule.CancelTime, loc, a.log)
	if err != nil {
		return nil, err
	}

	for _, job := range []scheduler.Job{rebalance, cancel} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
