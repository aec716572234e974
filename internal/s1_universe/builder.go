package s1_universe

import (
	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Builder applies a composed screen to every security of a snapshot
type Builder struct {
	screen Screen
	logger *logger.Logger
}

// NewBuilder creates a builder over the given screens (all must pass)
func NewBuilder(log *logger.Logger, screens ...Screen) *Builder {
	return &Builder{screen: And(screens...), logger: log.Component("s1_universe")}
}

// MomentumBuilder is is_liquid AND not_penny_stock, then the earnings guard
// and fundamentals screen when enabled
func MomentumBuilder(cfg strategyconfig.Universe, log *logger.Logger) *Builder {
	screens := []Screen{
		Liquidity(cfg.Liquidity.WindowDays, cfg.Liquidity.MinAvgDollarVolume),
		PriceFloor(cfg.PriceFloor.WindowDays, cfg.PriceFloor.MinAveragePrice),
	}
	return NewBuilder(log, append(screens, optionalScreens(cfg)...)...)
}

// ShortHorizonBuilder admits anything that traded in the latest session with a
// complete dollar-volume window. Used by the reversal and mean_reversion modes.
func ShortHorizonBuilder(cfg *strategyconfig.Config, log *logger.Logger) *Builder {
	screens := []Screen{TradedRecently(cfg.Signals.Reversal.DollarVolumeWindowDays)}
	return NewBuilder(log, append(screens, optionalScreens(cfg.Universe)...)...)
}

func optionalScreens(cfg strategyconfig.Universe) []Screen {
	var screens []Screen
	if cfg.Earnings.Enable {
		screens = append(screens, EarningsGuard(cfg.Earnings.BufferDays))
	}
	if cfg.Fundamentals.Enable {
		screens = append(screens, FundamentalsScreen(cfg.Fundamentals))
	}
	return screens
}

// Build screens the snapshot
// ⭐ SSOT: S1 → S2 유니버스 생성
func (b *Builder) Build(snap *contracts.MarketSnapshot) *contracts.Universe {
	universe := &contracts.Universe{
		Date:       snap.Date,
		Securities: make([]contracts.Security, 0, len(snap.Securities)),
		Excluded:   make(map[contracts.Security]string),
		TotalCount: len(snap.Securities),
	}

	byReason := make(map[string]int)
	for _, sec := range snap.Securities {
		if reason := b.screen.Exclude(snap, sec); reason != "" {
			universe.Excluded[sec] = reason
			byReason[reason]++
			continue
		}
		universe.Securities = append(universe.Securities, sec)
	}
	contracts.SortSecurities(universe.Securities)

	b.logger.WithFields(map[string]interface{}{
		"date":      snap.Date.Format("2006-01-02"),
		"total":     universe.TotalCount,
		"eligible":  universe.Count(),
		"excluded":  len(universe.Excluded),
		"by_reason": byReason,
	}).Info("S1 universe built")

	return universe
}
