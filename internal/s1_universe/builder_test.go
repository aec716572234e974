package s1_universe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func constSeries(n int, value float64) contracts.Series {
	s := make(contracts.Series, n)
	for i := range s {
		s[i] = contracts.Point{Date: day0.AddDate(0, 0, i), Value: value}
	}
	return s
}

type fixture struct {
	sessions int
	close    float64
	volume   float64
	funds    map[contracts.Metric]float64
}

func snapshotOf(secs map[contracts.Security]fixture) *contracts.MarketSnapshot {
	snap := &contracts.MarketSnapshot{
		Date:         day0.AddDate(0, 0, 300),
		Closes:       make(map[contracts.Security]contracts.Series),
		Volumes:      make(map[contracts.Security]contracts.Series),
		Fundamentals: make(map[contracts.Security]map[contracts.Metric]float64),
	}
	for sec, f := range secs {
		snap.Securities = append(snap.Securities, sec)
		snap.Closes[sec] = constSeries(f.sessions, f.close)
		snap.Volumes[sec] = constSeries(f.sessions, f.volume)
		if f.funds != nil {
			snap.Fundamentals[sec] = f.funds
		}
	}
	contracts.SortSecurities(snap.Securities)
	return snap
}

func TestMomentumBuilder_Build(t *testing.T) {
	cfg := strategyconfig.Default().Universe
	cfg.Earnings.Enable = false

	snap := snapshotOf(map[contracts.Security]fixture{
		"AAPL":  {sessions: 252, close: 150, volume: 1_000_000},
		"THIN":  {sessions: 252, close: 50, volume: 1_000},
		"PENNY": {sessions: 252, close: 2, volume: 50_000_000},
		"NEW":   {sessions: 30, close: 100, volume: 1_000_000},
		"MSFT":  {sessions: 252, close: 300, volume: 500_000},
	})

	u := MomentumBuilder(cfg, logger.Nop()).Build(snap)

	assert.Equal(t, []contracts.Security{"AAPL", "MSFT"}, u.Securities)
	assert.Equal(t, 5, u.TotalCount)
	assert.True(t, u.Contains("AAPL"))
	assert.False(t, u.Contains("THIN"))

	tests := map[contracts.Security]string{
		"THIN":  contracts.ReasonIlliquid,
		"PENNY": contracts.ReasonPennyStock,
		"NEW":   contracts.ReasonInsufficientHistory,
	}
	for sec, want := range tests {
		excluded, reason := u.IsExcluded(sec)
		assert.True(t, excluded, sec)
		assert.Equal(t, want, reason, sec)
	}
}

func TestMomentumBuilder_EarningsGuard(t *testing.T) {
	cfg := strategyconfig.Default().Universe

	snap := snapshotOf(map[contracts.Security]fixture{
		"CLEAR": {sessions: 252, close: 100, volume: 1_000_000, funds: map[contracts.Metric]float64{
			contracts.MetricDaysUntilNextEarnings: 10, contracts.MetricDaysSincePrevEarnings: 20,
		}},
		"SOON": {sessions: 252, close: 100, volume: 1_000_000, funds: map[contracts.Metric]float64{
			contracts.MetricDaysUntilNextEarnings: 2, contracts.MetricDaysSincePrevEarnings: 20,
		}},
		"NO_NEXT": {sessions: 252, close: 100, volume: 1_000_000, funds: map[contracts.Metric]float64{
			contracts.MetricDaysSincePrevEarnings: 5,
		}},
		"NO_PREV": {sessions: 252, close: 100, volume: 1_000_000},
	})

	u := MomentumBuilder(cfg, logger.Nop()).Build(snap)
	assert.Equal(t, []contracts.Security{"CLEAR", "NO_NEXT"}, u.Securities)
	assert.Equal(t, contracts.ReasonEarningsWindow, u.Excluded["SOON"])
	assert.Equal(t, contracts.ReasonEarningsWindow, u.Excluded["NO_PREV"])
}

func TestEarningsEligible(t *testing.T) {
	tests := []struct {
		name    string
		ne      float64
		neKnown bool
		pe      float64
		peKnown bool
		buffer  int
		want    bool
	}{
		{"both clear", 10, true, 10, true, 2, true},
		{"next unknown prev clear", 0, false, 5, true, 2, true},
		{"next at buffer", 2, true, 10, true, 2, false},
		{"prev at buffer", 10, true, 2, true, 2, false},
		{"prev unknown", 10, true, 0, false, 2, false},
		{"both unknown", 0, false, 0, false, 2, false},
		{"zero buffer", 1, true, 1, true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EarningsEligible(tt.ne, tt.neKnown, tt.pe, tt.peKnown, tt.buffer))
		})
	}
}

func TestFundamentalsScreen(t *testing.T) {
	roe, ps := 14.0, 0.75
	screen := FundamentalsScreen(strategyconfig.Fundamentals{Enable: true, ROEMin: &roe, PSMax: &ps})

	tests := []struct {
		name  string
		funds map[contracts.Metric]float64
		want  string
	}{
		{"passes", map[contracts.Metric]float64{contracts.MetricROE: 20, contracts.MetricPS: 0.5}, ""},
		{"low roe", map[contracts.Metric]float64{contracts.MetricROE: 10, contracts.MetricPS: 0.5}, contracts.ReasonFundamentals},
		{"high ps", map[contracts.Metric]float64{contracts.MetricROE: 20, contracts.MetricPS: 0.75}, contracts.ReasonFundamentals},
		{"missing ps", map[contracts.Metric]float64{contracts.MetricROE: 20}, contracts.ReasonFundamentalsMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotOf(map[contracts.Security]fixture{"X": {sessions: 1, close: 1, volume: 1, funds: tt.funds}})
			assert.Equal(t, tt.want, screen.Exclude(snap, "X"))
		})
	}
}

func TestFundamentalMetrics(t *testing.T) {
	cfg := strategyconfig.Default().Universe
	assert.Equal(t, []contracts.Metric{
		contracts.MetricDaysUntilNextEarnings,
		contracts.MetricDaysSincePrevEarnings,
	}, FundamentalMetrics(cfg))

	pe := 0.8
	cfg.Earnings.Enable = false
	cfg.Fundamentals = strategyconfig.Fundamentals{Enable: true, PEMin: &pe}
	assert.Equal(t, []contracts.Metric{contracts.MetricPE}, FundamentalMetrics(cfg))
}

func TestShortHorizonBuilder(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Universe.Earnings.Enable = false

	snap := snapshotOf(map[contracts.Security]fixture{
		"LIVE":   {sessions: 30, close: 10, volume: 100},
		"HALTED": {sessions: 30, close: 10, volume: 0},
		"SHORT":  {sessions: 10, close: 10, volume: 100},
	})

	u := ShortHorizonBuilder(cfg, logger.Nop()).Build(snap)
	assert.Equal(t, []contracts.Security{"LIVE"}, u.Securities)
	assert.Equal(t, contracts.ReasonIlliquid, u.Excluded["HALTED"])
	assert.Equal(t, contracts.ReasonInsufficientHistory, u.Excluded["SHORT"])
}

func TestAverageDollarVolume(t *testing.T) {
	closes := contracts.Series{
		{Date: day0, Value: 10},
		{Date: day0.AddDate(0, 0, 1), Value: 20},
		{Date: day0.AddDate(0, 0, 2), Value: 30},
	}
	volumes := contracts.Series{
		{Date: day0, Value: 1},
		{Date: day0.AddDate(0, 0, 1), Value: 2},
		{Date: day0.AddDate(0, 0, 2), Value: 3},
	}

	adv, ok := AverageDollarVolume(closes, volumes, 2)
	require.True(t, ok)
	assert.InDelta(t, (40.0+90.0)/2, adv, 1e-9)

	_, ok = AverageDollarVolume(closes, volumes, 4)
	assert.False(t, ok)

	shifted := contracts.Series{{Date: day0.AddDate(0, 0, 5), Value: 1}}
	_, ok = AverageDollarVolume(closes.Tail(1), shifted, 1)
	assert.False(t, ok, "misaligned dates")
}

func TestSMA(t *testing.T) {
	avg, ok := SMA(constSeries(200, 4), 200)
	require.True(t, ok)
	assert.Equal(t, 4.0, avg)

	_, ok = SMA(constSeries(199, 4), 200)
	assert.False(t, ok)
}

func TestTradedRecently(t *testing.T) {
	snap := snapshotOf(map[contracts.Security]fixture{
		"LIVE":  {sessions: 40, close: 20, volume: 1_000},
		"SHORT": {sessions: 10, close: 20, volume: 1_000},
		"QUIET": {sessions: 40, close: 20, volume: 0},
	})
	screen := TradedRecently(30)

	assert.Empty(t, screen.Exclude(snap, "LIVE"))
	assert.Equal(t, contracts.ReasonInsufficientHistory, screen.Exclude(snap, "SHORT"))
	assert.Equal(t, contracts.ReasonIlliquid, screen.Exclude(snap, "QUIET"))
	assert.Equal(t, contracts.ReasonIlliquid, screen.Exclude(snap, "MISSING"))
}
