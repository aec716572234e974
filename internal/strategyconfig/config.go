package strategyconfig

import (
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// Config is the full strategy definition loaded from YAML
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Signals    Signals    `yaml:"signals" json:"signals"`
	Ranking    Ranking    `yaml:"ranking" json:"ranking"`
	Allocation Allocation `yaml:"allocation" json:"allocation"`
	Hold       Hold       `yaml:"hold" json:"hold"`
	Schedule   Schedule   `yaml:"schedule" json:"schedule"`
	Execution  Execution  `yaml:"execution" json:"execution"`
	Backtest   Backtest   `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" validate:"required"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone" validate:"required"`
}

// Universe S1: tradable pool screens
type Universe struct {
	Liquidity    Liquidity    `yaml:"liquidity" json:"liquidity"`
	PriceFloor   PriceFloor   `yaml:"price_floor" json:"price_floor"`
	Earnings     Earnings     `yaml:"earnings" json:"earnings"`
	Fundamentals Fundamentals `yaml:"fundamentals" json:"fundamentals"`
}

// Liquidity: mean(close*volume) over window_days must exceed min_avg_dollar_volume
type Liquidity struct {
	WindowDays         int     `yaml:"window_days" json:"window_days" validate:"gt=0"`
	MinAvgDollarVolume float64 `yaml:"min_avg_dollar_volume" json:"min_avg_dollar_volume" validate:"gte=0"`
}

// PriceFloor: SMA(close, window_days) must exceed min_average_price
type PriceFloor struct {
	WindowDays      int     `yaml:"window_days" json:"window_days" validate:"gt=0"`
	MinAveragePrice float64 `yaml:"min_average_price" json:"min_average_price" validate:"gte=0"`
}

// Earnings: trading days to keep clear of an announcement on both sides
type Earnings struct {
	Enable     bool `yaml:"enable" json:"enable"`
	BufferDays int  `yaml:"buffer_days" json:"buffer_days" validate:"gte=0"`
}

// Fundamentals: optional thresholds, nil = not applied
type Fundamentals struct {
	Enable bool     `yaml:"enable" json:"enable"`
	ROEMin *float64 `yaml:"roe_min,omitempty" json:"roe_min,omitempty"`
	ROAMin *float64 `yaml:"roa_min,omitempty" json:"roa_min,omitempty"`
	PEMin  *float64 `yaml:"pe_min,omitempty" json:"pe_min,omitempty"`
	PSMax  *float64 `yaml:"ps_max,omitempty" json:"ps_max,omitempty"`
	PCFMin *float64 `yaml:"pcf_min,omitempty" json:"pcf_min,omitempty"`
}

// Signals S2
type Signals struct {
	Momentum Momentum `yaml:"momentum" json:"momentum"`
	Reversal Reversal `yaml:"reversal" json:"reversal"`
}

// Momentum: cross-sectional shift ratio and absolute return windows
type Momentum struct {
	WindowDays         int `yaml:"window_days" json:"window_days" validate:"gt=1"`
	ShiftDays          int `yaml:"shift_days" json:"shift_days" validate:"gt=0"`
	AbsoluteWindowDays int `yaml:"absolute_window_days" json:"absolute_window_days" validate:"gt=1"`
}

// Reversal: short-horizon returns for the reversal and mean_reversion modes
type Reversal struct {
	ReturnsLookbackDays    int `yaml:"returns_lookback_days" json:"returns_lookback_days" validate:"gt=1"`
	Quantiles              int `yaml:"quantiles" json:"quantiles" validate:"gte=2"`
	DollarVolumeWindowDays int `yaml:"dollar_volume_window_days" json:"dollar_volume_window_days" validate:"gt=0"`
}

// Ranking S4: percentile bands over the combined rank
type Ranking struct {
	Longs         Band               `yaml:"longs" json:"longs"`
	Shorts        Band               `yaml:"shorts" json:"shorts"`
	MeanReversion MeanReversionBands `yaml:"mean_reversion" json:"mean_reversion"`
}

// MeanReversionBands: the dollar-volume band picks the active set, the return
// bands pick losers to buy and winners to sell inside it
type MeanReversionBands struct {
	DollarVolume Band `yaml:"dollar_volume" json:"dollar_volume"`
	Longs        Band `yaml:"longs" json:"longs"`
	Shorts       Band `yaml:"shorts" json:"shorts"`
}

// Band is an inclusive percentile range in [0, 100]
type Band struct {
	MinPct float64 `yaml:"min_pct" json:"min_pct" validate:"gte=0,lte=100"`
	MaxPct float64 `yaml:"max_pct" json:"max_pct" validate:"gte=0,lte=100"`
}

// Allocation S5: gross fraction of portfolio value per side
type Allocation struct {
	LongLeverage  float64 `yaml:"long_leverage" json:"long_leverage" validate:"gte=0,lte=1"`
	ShortLeverage float64 `yaml:"short_leverage" json:"short_leverage" validate:"gte=-1,lte=0"`
	// MaxInOne caps a single position in reversal mode
	MaxInOne float64 `yaml:"max_in_one" json:"max_in_one" validate:"gt=0,lte=1"`
}

// Hold: rolling hold buffer for reversal mode
type Hold struct {
	DaysToHold    int `yaml:"days_to_hold" json:"days_to_hold" validate:"gt=0"`
	MaxDaysToHold int `yaml:"max_days_to_hold" json:"max_days_to_hold" validate:"gt=0"`
}

// Schedule drives the cron jobs
type Schedule struct {
	Mode          string `yaml:"mode" json:"mode" validate:"oneof=momentum mean_reversion reversal"`
	DateRule      string `yaml:"date_rule" json:"date_rule" validate:"oneof=week_start month_start every_day"`
	RebalanceTime string `yaml:"rebalance_time" json:"rebalance_time"` // HH:MM local
	CancelTime    string `yaml:"cancel_time" json:"cancel_time"`       // HH:MM local
}

// Date rules
const (
	DateRuleWeekStart  = "week_start"
	DateRuleMonthStart = "month_start"
	DateRuleEveryDay   = "every_day"
)

// Execution S6
type Execution struct {
	OrdersPerSecond float64 `yaml:"orders_per_second" json:"orders_per_second" validate:"gt=0"`
}

// Backtest replay costs
type Backtest struct {
	InitialCapital     float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0"`
	CommissionPerShare float64 `yaml:"commission_per_share" json:"commission_per_share" validate:"gte=0"`
	SlippageBps        float64 `yaml:"slippage_bps" json:"slippage_bps" validate:"gte=0"`
}

// Default returns the parameters the strategy was designed with
func Default() *Config {
	return &Config{
		Meta: Meta{StrategyID: "us_equity_momentum_ls", Version: "1", Timezone: "America/New_York"},
		Universe: Universe{
			Liquidity:  Liquidity{WindowDays: 20, MinAvgDollarVolume: 10_000_000},
			PriceFloor: PriceFloor{WindowDays: 200, MinAveragePrice: 5},
			Earnings:   Earnings{Enable: true, BufferDays: 2},
		},
		Signals: Signals{
			Momentum: Momentum{WindowDays: 252, ShiftDays: 100, AbsoluteWindowDays: 252},
			Reversal: Reversal{ReturnsLookbackDays: 5, Quantiles: 5, DollarVolumeWindowDays: 30},
		},
		Ranking: Ranking{
			Longs:  Band{MinPct: 95, MaxPct: 100},
			Shorts: Band{MinPct: 0, MaxPct: 5},
			MeanReversion: MeanReversionBands{
				DollarVolume: Band{MinPct: 95, MaxPct: 100},
				Longs:        Band{MinPct: 0, MaxPct: 10},
				Shorts:       Band{MinPct: 90, MaxPct: 100},
			},
		},
		Allocation: Allocation{LongLeverage: 0.5, ShortLeverage: -0.5, MaxInOne: 1},
		Hold:       Hold{DaysToHold: 1, MaxDaysToHold: 6},
		Schedule: Schedule{
			Mode:          string(contracts.ModeMomentum),
			DateRule:      DateRuleWeekStart,
			RebalanceTime: "10:00",
			CancelTime:    "16:00",
		},
		Execution: Execution{OrdersPerSecond: 5},
		Backtest:  Backtest{InitialCapital: 1_000_000, CommissionPerShare: 0.005, SlippageBps: 5},
	}
}

// StrategyMode returns the configured selection routine
func (c *Config) StrategyMode() contracts.Mode {
	return contracts.Mode(c.Schedule.Mode)
}

// Location returns the exchange time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Meta.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HistoryDays is the longest trailing window any stage reads
func (c *Config) HistoryDays() int {
	days := c.Universe.Liquidity.WindowDays
	for _, d := range []int{
		c.Universe.PriceFloor.WindowDays,
		c.Signals.Momentum.WindowDays,
		c.Signals.Momentum.AbsoluteWindowDays,
		c.Signals.Reversal.ReturnsLookbackDays,
		c.Signals.Reversal.DollarVolumeWindowDays,
	} {
		if d > days {
			days = d
		}
	}
	return days
}
