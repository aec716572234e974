package s1_universe

import (
	"math"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
)

// Screen decides whether one security stays in the universe.
// Exclude returns "" when sec passes, otherwise the exclusion reason.
type Screen interface {
	Exclude(snap *contracts.MarketSnapshot, sec contracts.Security) string
}

// ScreenFunc adapts a function to Screen
type ScreenFunc func(snap *contracts.MarketSnapshot, sec contracts.Security) string

// Exclude implements Screen
func (f ScreenFunc) Exclude(snap *contracts.MarketSnapshot, sec contracts.Security) string {
	return f(snap, sec)
}

// And passes only when every screen passes; the first failing reason wins
func And(screens ...Screen) Screen {
	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		for _, s := range screens {
			if reason := s.Exclude(snap, sec); reason != "" {
				return reason
			}
		}
		return ""
	})
}

// Liquidity: mean(close*volume) over window sessions > minDollarVolume
func Liquidity(window int, minDollarVolume float64) Screen {
	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		adv, ok := AverageDollarVolume(snap.Closes[sec], snap.Volumes[sec], window)
		if !ok {
			return contracts.ReasonInsufficientHistory
		}
		if adv <= minDollarVolume {
			return contracts.ReasonIlliquid
		}
		return ""
	})
}

// PriceFloor: SMA(close, window) > minPrice
func PriceFloor(window int, minPrice float64) Screen {
	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		avg, ok := SMA(snap.Closes[sec], window)
		if !ok {
			return contracts.ReasonInsufficientHistory
		}
		if avg <= minPrice {
			return contracts.ReasonPennyStock
		}
		return ""
	})
}

// TradedRecently: the latest session has volume and the dollar-volume window is complete
func TradedRecently(window int) Screen {
	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		last, ok := snap.Volumes[sec].Last()
		if !ok || last.Value <= 0 {
			return contracts.ReasonIlliquid
		}
		if _, ok := AverageDollarVolume(snap.Closes[sec], snap.Volumes[sec], window); !ok {
			return contracts.ReasonInsufficientHistory
		}
		return ""
	})
}

// EarningsGuard keeps securities clear of an earnings announcement by more than bufferDays
func EarningsGuard(bufferDays int) Screen {
	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		ne, neKnown := snap.Fundamental(sec, contracts.MetricDaysUntilNextEarnings)
		pe, peKnown := snap.Fundamental(sec, contracts.MetricDaysSincePrevEarnings)
		if !EarningsEligible(ne, neKnown, pe, peKnown, bufferDays) {
			return contracts.ReasonEarningsWindow
		}
		return ""
	})
}

// EarningsEligible is (ne unknown OR ne > buffer) AND pe > buffer.
// An unknown pe is ineligible: the comparison against a missing value is false.
func EarningsEligible(ne float64, neKnown bool, pe float64, peKnown bool, bufferDays int) bool {
	buffer := float64(bufferDays)
	nextClear := !neKnown || ne > buffer
	prevClear := peKnown && pe > buffer
	return nextClear && prevClear
}

// FundamentalsScreen applies every configured threshold. Unknown data fails an applied threshold.
func FundamentalsScreen(cfg strategyconfig.Fundamentals) Screen {
	type rule struct {
		metric contracts.Metric
		bound  *float64
		min    bool
	}
	rules := []rule{
		{contracts.MetricROE, cfg.ROEMin, true},
		{contracts.MetricROA, cfg.ROAMin, true},
		{contracts.MetricPE, cfg.PEMin, true},
		{contracts.MetricPS, cfg.PSMax, false},
		{contracts.MetricPCF, cfg.PCFMin, true},
	}

	return ScreenFunc(func(snap *contracts.MarketSnapshot, sec contracts.Security) string {
		for _, r := range rules {
			if r.bound == nil {
				continue
			}
			v, ok := snap.Fundamental(sec, r.metric)
			if !ok {
				return contracts.ReasonFundamentalsMissing
			}
			if (r.min && v <= *r.bound) || (!r.min && v >= *r.bound) {
				return contracts.ReasonFundamentals
			}
		}
		return ""
	})
}

// FundamentalMetrics lists the metrics the configured screens read
func FundamentalMetrics(cfg strategyconfig.Universe) []contracts.Metric {
	var metrics []contracts.Metric
	if cfg.Earnings.Enable {
		metrics = append(metrics, contracts.MetricDaysUntilNextEarnings, contracts.MetricDaysSincePrevEarnings)
	}
	if !cfg.Fundamentals.Enable {
		return metrics
	}
	f := cfg.Fundamentals
	for _, m := range []struct {
		metric contracts.Metric
		bound  *float64
	}{
		{contracts.MetricROE, f.ROEMin},
		{contracts.MetricROA, f.ROAMin},
		{contracts.MetricPE, f.PEMin},
		{contracts.MetricPS, f.PSMax},
		{contracts.MetricPCF, f.PCFMin},
	} {
		if m.bound != nil {
			metrics = append(metrics, m.metric)
		}
	}
	return metrics
}

// AverageDollarVolume is mean(close*volume) over the last window sessions.
// ok=false when either series is shorter than window, the dates disagree, or a value is not finite.
func AverageDollarVolume(closes, volumes contracts.Series, window int) (float64, bool) {
	if window <= 0 || len(closes) < window || len(volumes) < window {
		return 0, false
	}
	c, v := closes.Tail(window), volumes.Tail(window)

	sum := 0.0
	for i := range c {
		if !c[i].Date.Equal(v[i].Date) || !finite(c[i].Value) || !finite(v[i].Value) {
			return 0, false
		}
		sum += c[i].Value * v[i].Value
	}
	return sum / float64(window), true
}

// SMA is the simple moving average of the last window values
func SMA(series contracts.Series, window int) (float64, bool) {
	if window <= 0 || len(series) < window {
		return 0, false
	}
	sum := 0.0
	for _, p := range series.Tail(window) {
		if !finite(p.Value) {
			return 0, false
		}
		sum += p.Value
	}
	return sum / float64(window), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
