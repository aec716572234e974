package strategyconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load("../../config/strategy.yaml")
	require.NoError(t, err)

	assert.Equal(t, "us_equity_momentum_ls", cfg.Meta.StrategyID)
	assert.Equal(t, 10_000_000.0, cfg.Universe.Liquidity.MinAvgDollarVolume)
	assert.Equal(t, 252, cfg.Signals.Momentum.WindowDays)
	assert.Equal(t, contracts.ModeMomentum, cfg.StrategyMode())
	require.NotNil(t, cfg.Universe.Fundamentals.PSMax)
	assert.Equal(t, 0.75, *cfg.Universe.Fundamentals.PSMax)
	assert.Nil(t, cfg.Universe.Fundamentals.ROAMin)
	assert.Equal(t, 252, cfg.HistoryDays())
	assert.Equal(t, Band{MinPct: 95, MaxPct: 100}, cfg.Ranking.MeanReversion.DollarVolume)
	assert.Equal(t, Band{MinPct: 0, MaxPct: 10}, cfg.Ranking.MeanReversion.Longs)
	assert.Equal(t, Band{MinPct: 90, MaxPct: 100}, cfg.Ranking.MeanReversion.Shorts)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte(`
allocation:
  long_leverage: 0.8
  short_leverage: -0.2
`))
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Allocation.LongLeverage)
	assert.Equal(t, -0.2, cfg.Allocation.ShortLeverage)
	assert.Equal(t, 1.0, cfg.Allocation.MaxInOne)
	assert.Equal(t, 95.0, cfg.Ranking.Longs.MinPct)
	assert.Equal(t, Default().Ranking.MeanReversion, cfg.Ranking.MeanReversion)
}

func TestParse_MeanReversionBandsIndependent(t *testing.T) {
	cfg, err := Parse([]byte(`
ranking:
  mean_reversion:
    longs: {min_pct: 0, max_pct: 20}
`))
	require.NoError(t, err)
	assert.Equal(t, Band{MinPct: 0, MaxPct: 20}, cfg.Ranking.MeanReversion.Longs)
	assert.Equal(t, Band{MinPct: 90, MaxPct: 100}, cfg.Ranking.MeanReversion.Shorts)
	assert.Equal(t, Band{MinPct: 95, MaxPct: 100}, cfg.Ranking.Longs)
	assert.Equal(t, Band{MinPct: 0, MaxPct: 5}, cfg.Ranking.Shorts)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte(`
ranking:
  longs: {min_pct: 95, max_pct: 100, top_n: 10}
`))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"longs above 100", func(c *Config) { c.Ranking.Longs.MaxPct = 101 }, "ranking.longs.max_pct"},
		{"shorts negative", func(c *Config) { c.Ranking.Shorts.MinPct = -1 }, "ranking.shorts.min_pct"},
		{"band inverted", func(c *Config) { c.Ranking.Longs.MinPct = 99; c.Ranking.Longs.MaxPct = 90 }, "ranking.longs"},
		{"mean reversion band inverted", func(c *Config) { c.Ranking.MeanReversion.Shorts = Band{MinPct: 95, MaxPct: 90} }, "ranking.mean_reversion.shorts"},
		{"mean reversion band above 100", func(c *Config) { c.Ranking.MeanReversion.DollarVolume.MaxPct = 120 }, "ranking.mean_reversion.dollar_volume.max_pct"},
		{"one-close returns window", func(c *Config) { c.Signals.Reversal.ReturnsLookbackDays = 1 }, "signals.reversal.returns_lookback_days"},
		{"negative long leverage", func(c *Config) { c.Allocation.LongLeverage = -0.1 }, "allocation.long_leverage"},
		{"positive short leverage", func(c *Config) { c.Allocation.ShortLeverage = 0.5 }, "allocation.short_leverage"},
		{"long leverage above one", func(c *Config) { c.Allocation.LongLeverage = 1.5 }, "allocation.long_leverage"},
		{"short leverage below minus one", func(c *Config) { c.Allocation.ShortLeverage = -1.5 }, "allocation.short_leverage"},
		{"zero window", func(c *Config) { c.Universe.Liquidity.WindowDays = 0 }, "universe.liquidity.window_days"},
		{"shift not inside window", func(c *Config) { c.Signals.Momentum.ShiftDays = 252 }, "signals.momentum.shift_days"},
		{"hold inverted", func(c *Config) { c.Hold.DaysToHold = 7 }, "hold"},
		{"unknown mode", func(c *Config) { c.Schedule.Mode = "pairs" }, "schedule.mode"},
		{"unknown date rule", func(c *Config) { c.Schedule.DateRule = "quarter_start" }, "schedule.date_rule"},
		{"bad time", func(c *Config) { c.Schedule.RebalanceTime = "9:30" }, "schedule.rebalance_time"},
		{"bad timezone", func(c *Config) { c.Meta.Timezone = "Mars/Olympus" }, "meta.timezone"},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	cfg := Default()
	cfg.Ranking.Longs = Band{MinPct: 100, MaxPct: 100}
	cfg.Ranking.Shorts = Band{MinPct: 0, MaxPct: 0}
	cfg.Allocation.LongLeverage = 1
	cfg.Allocation.ShortLeverage = 0
	cfg.Hold = Hold{DaysToHold: 6, MaxDaysToHold: 6}

	assert.NoError(t, Validate(cfg))
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	cfg := Default()
	cfg.Allocation.LongLeverage = 0.8
	cfg.Allocation.ShortLeverage = -0.8
	cfg.Ranking.Longs.MinPct = 3

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	assert.True(t, codes["GROSS_LEVERAGE"])
	assert.True(t, codes["OVERLAPPING_BANDS"])
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Ranking.Longs.MinPct = 90
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
