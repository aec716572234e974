package brain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/execution"
	"github.com/wonny/aegis/momentum/internal/s0_data"
	"github.com/wonny/aegis/momentum/internal/selection"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// trendingStore holds ten securities; S00 falls fastest and S09 rises fastest
func trendingStore(sessions int) (*s0_data.MemoryStore, []time.Time) {
	store := s0_data.NewMemoryStore()
	var dates []time.Time
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); len(dates) < sessions; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}

	for i := 0; i < 10; i++ {
		sec := contracts.Security(fmt.Sprintf("S%02d", i))
		growth := float64(i-5) * 0.002
		for t, d := range dates {
			store.AddBars(contracts.Bar{Security: sec, Date: d, Close: 10 * math.Pow(1+growth, float64(t)), Volume: 1_000_000})
		}
	}
	return store, dates
}

func testConfig() *strategyconfig.Config {
	cfg := strategyconfig.Default()
	cfg.Universe.Liquidity = strategyconfig.Liquidity{WindowDays: 5, MinAvgDollarVolume: 1}
	cfg.Universe.PriceFloor = strategyconfig.PriceFloor{WindowDays: 5, MinAveragePrice: 1}
	cfg.Universe.Earnings.Enable = false
	cfg.Signals.Momentum = strategyconfig.Momentum{WindowDays: 20, ShiftDays: 5, AbsoluteWindowDays: 20}
	cfg.Signals.Reversal.DollarVolumeWindowDays = 5
	cfg.Ranking.Longs = strategyconfig.Band{MinPct: 80, MaxPct: 100}
	cfg.Ranking.Shorts = strategyconfig.Band{MinPct: 0, MaxPct: 20}
	cfg.Execution.OrdersPerSecond = 1000
	return cfg
}

func lastPrices(t *testing.T, store *s0_data.MemoryStore, asOf time.Time) map[contracts.Security]float64 {
	t.Helper()
	ctx := context.Background()
	secs, err := store.Securities(ctx, asOf)
	require.NoError(t, err)

	prices := make(map[contracts.Security]float64, len(secs))
	for _, sec := range secs {
		p, err := store.Current(ctx, sec, contracts.FieldClose, asOf)
		require.NoError(t, err)
		prices[sec] = p
	}
	return prices
}

type recorder struct{ reports []*contracts.CycleReport }

func (r *recorder) ObserveCycle(report *contracts.CycleReport) { r.reports = append(r.reports, report) }

func newHarness(t *testing.T, cfg *strategyconfig.Config) (*Orchestrator, *execution.PaperBroker, *s0_data.MemoryStore, []time.Time, *selection.MemoryRepository) {
	t.Helper()
	store, dates := trendingStore(40)
	broker := execution.NewPaperBroker(1_000_000, execution.PaperCosts{}, logger.Nop())
	repo := selection.NewMemoryRepository(0)

	o, err := NewOrchestrator(cfg, Deps{Market: store, Fundamentals: store, Broker: broker, Repository: repo}, logger.Nop())
	require.NoError(t, err)
	return o, broker, store, dates, repo
}

func TestCycle_Momentum(t *testing.T) {
	o, broker, store, dates, repo := newHarness(t, testConfig())
	rec := &recorder{}
	o.AddObserver(rec)

	session := dates[len(dates)-1]
	broker.Mark(lastPrices(t, store, session))
	st := NewState(o.Config())

	report, err := o.Cycle(context.Background(), session, st)
	require.NoError(t, err)

	assert.True(t, report.Rebalanced)
	assert.Equal(t, contracts.ModeMomentum, report.Mode)
	assert.Equal(t, 10, report.Evaluated)
	assert.Equal(t, 10, report.Eligible)
	assert.Equal(t, []contracts.Security{"S08", "S09"}, report.Selection.Longs)
	assert.Equal(t, []contracts.Security{"S00", "S01"}, report.Selection.Shorts)
	assert.Equal(t, []contracts.Security{"S08", "S09", "S00", "S01"}, report.Emitted)

	for _, tp := range report.Targets {
		assert.InDelta(t, 0.25, math.Abs(tp.Weight), 1e-12)
	}

	assert.Equal(t, session, st.LastRebalance)
	assert.Len(t, rec.reports, 1)
	latest, err := repo.LatestCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, latest.RunID)
	assert.Equal(t, o.ConfigHash(), latest.ConfigHash)
}

func TestCycle_DateRuleSkipsSameWeek(t *testing.T) {
	o, broker, store, dates, _ := newHarness(t, testConfig())
	ctx := context.Background()
	st := NewState(o.Config())

	// dates[35] is a Monday; dates[36] the Tuesday after
	monday, tuesday := dates[35], dates[36]
	require.Equal(t, time.Monday, monday.Weekday())

	broker.Mark(lastPrices(t, store, monday))
	first, err := o.Cycle(ctx, monday, st)
	require.NoError(t, err)
	assert.True(t, first.Rebalanced)

	second, err := o.Cycle(ctx, tuesday, st)
	require.NoError(t, err)
	assert.False(t, second.Rebalanced)
	assert.Empty(t, second.Emitted)
	assert.Equal(t, monday, st.LastRebalance)
}

func TestCycle_OpenOrdersDeferNextRebalance(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.DateRule = strategyconfig.DateRuleEveryDay
	o, broker, store, dates, _ := newHarness(t, cfg)
	ctx := context.Background()
	st := NewState(cfg)

	broker.Mark(lastPrices(t, store, dates[38]))
	_, err := o.Cycle(ctx, dates[38], st)
	require.NoError(t, err)

	report, err := o.Cycle(ctx, dates[39], st)
	require.NoError(t, err)
	assert.Len(t, report.Deferred, 4)
	assert.Empty(t, report.Emitted)

	n, err := o.CancelOpenOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCycle_Reversal(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Mode = string(contracts.ModeReversal)
	cfg.Schedule.DateRule = strategyconfig.DateRuleEveryDay
	o, broker, store, dates, _ := newHarness(t, cfg)
	st := NewState(cfg)

	session := dates[len(dates)-1]
	broker.Mark(lastPrices(t, store, session))

	report, err := o.Cycle(context.Background(), session, st)
	require.NoError(t, err)

	// losers are bought, winners sold
	assert.Equal(t, []contracts.Security{"S00", "S01"}, report.Selection.Longs)
	assert.Equal(t, []contracts.Security{"S08", "S09"}, report.Selection.Shorts)
	assert.Equal(t, []contracts.Security{"S00", "S01"}, st.LongHold.Held())

	long, ok := (&contracts.TargetPortfolio{Positions: report.Targets}).Get("S00")
	require.True(t, ok)
	assert.InDelta(t, 0.25, long.Weight, 1e-12)
}

// rejectOnce fails the first order it is asked to place
type rejectOnce struct {
	*execution.PaperBroker
	rejected bool
}

func (b *rejectOnce) OrderTargetPercent(ctx context.Context, sec contracts.Security, weight float64) (*contracts.Order, error) {
	if !b.rejected {
		b.rejected = true
		return nil, errors.New("order rejected")
	}
	return b.PaperBroker.OrderTargetPercent(ctx, sec, weight)
}

func TestCycle_FailedDispatchLeavesStateUnchanged(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Mode = string(contracts.ModeReversal)
	cfg.Schedule.DateRule = strategyconfig.DateRuleEveryDay
	cfg.Hold = strategyconfig.Hold{DaysToHold: 3, MaxDaysToHold: 6}

	store, dates := trendingStore(40)
	paper := execution.NewPaperBroker(1_000_000, execution.PaperCosts{}, logger.Nop())
	broker := &rejectOnce{PaperBroker: paper}
	repo := selection.NewMemoryRepository(0)
	o, err := NewOrchestrator(cfg, Deps{Market: store, Fundamentals: store, Broker: broker, Repository: repo}, logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	session := dates[len(dates)-1]
	paper.Mark(lastPrices(t, store, session))
	st := NewState(cfg)
	before := st.clone()

	_, err = o.Cycle(ctx, session, st)
	require.Error(t, err)
	assert.Equal(t, before, st)
	_, err = repo.LatestCycle(ctx)
	assert.ErrorIs(t, err, selection.ErrNoCycles)

	// the same session again records today's picks exactly once
	report, err := o.Cycle(ctx, session, st)
	require.NoError(t, err)
	assert.True(t, report.Rebalanced)
	assert.Equal(t, [][]contracts.Security{{"S00", "S01"}, {}, {}}, st.LongHold.Records)
	assert.Equal(t, [][]contracts.Security{{"S08", "S09"}, {}, {}}, st.ShortHold.Records)
	assert.Equal(t, session, st.LastRebalance)
}

func TestCycle_MeanReversion(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Mode = string(contracts.ModeMeanReversion)
	cfg.Ranking.MeanReversion = strategyconfig.MeanReversionBands{
		DollarVolume: strategyconfig.Band{MinPct: 50, MaxPct: 100},
		Longs:        strategyconfig.Band{MinPct: 0, MaxPct: 25},
		Shorts:       strategyconfig.Band{MinPct: 50, MaxPct: 100},
	}
	o, broker, store, dates, _ := newHarness(t, cfg)

	session := dates[len(dates)-1]
	broker.Mark(lastPrices(t, store, session))

	report, err := o.Cycle(context.Background(), session, NewState(cfg))
	require.NoError(t, err)

	// the most traded half is S05..S09; its worst recent performers are bought
	assert.Equal(t, []contracts.Security{"S05", "S06"}, report.Selection.Longs)
	assert.Equal(t, []contracts.Security{"S07", "S08", "S09"}, report.Selection.Shorts)
}

func TestShouldRebalance(t *testing.T) {
	fri := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tue := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rule    string
		last    time.Time
		session time.Time
		want    bool
	}{
		{"first ever", strategyconfig.DateRuleWeekStart, time.Time{}, tue, true},
		{"new week", strategyconfig.DateRuleWeekStart, fri, mon, true},
		{"same week", strategyconfig.DateRuleWeekStart, mon, tue, false},
		{"new month", strategyconfig.DateRuleMonthStart, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), fri, true},
		{"same month", strategyconfig.DateRuleMonthStart, fri, tue, false},
		{"every day", strategyconfig.DateRuleEveryDay, mon, tue, true},
		{"same day", strategyconfig.DateRuleEveryDay, tue, tue, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRebalance(tt.rule, tt.last, tt.session))
		})
	}
}
