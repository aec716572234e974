package portfolio

import (
	"math"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Constructor implements S5: weights from a selection and current holdings
// ⭐ SSOT: S5 포트폴리오 구성 로직은 여기서만
type Constructor struct {
	longLeverage  float64
	shortLeverage float64
	maxInOne      float64
	logger        *logger.Logger
}

// NewConstructor creates a new portfolio constructor
func NewConstructor(cfg strategyconfig.Allocation, log *logger.Logger) *Constructor {
	return &Constructor{
		longLeverage:  cfg.LongLeverage,
		shortLeverage: cfg.ShortLeverage,
		maxInOne:      cfg.MaxInOne,
		logger:        log.Component("portfolio"),
	}
}

// Allocate splits each side's leverage equally across its members. Held securities in
// neither side are targeted at 0. An empty side produces no instructions.
func (c *Constructor) Allocate(selection contracts.SelectionSet, holdings map[contracts.Security]contracts.Position) *contracts.TargetPortfolio {
	return c.build(selection, holdings, func(n int, leverage float64) float64 {
		return leverage / float64(n)
	})
}

// AllocateCapped is the reversal weighting: min(|leverage|/n, max_in_one) per position
func (c *Constructor) AllocateCapped(selection contracts.SelectionSet, holdings map[contracts.Security]contracts.Position) *contracts.TargetPortfolio {
	return c.build(selection, holdings, func(n int, leverage float64) float64 {
		w := math.Min(math.Abs(leverage)/float64(n), c.maxInOne)
		return math.Copysign(w, leverage)
	})
}

func (c *Constructor) build(
	selection contracts.SelectionSet,
	holdings map[contracts.Security]contracts.Position,
	weightFor func(n int, leverage float64) float64,
) *contracts.TargetPortfolio {
	target := &contracts.TargetPortfolio{
		Date:      selection.Date,
		Positions: make([]contracts.TargetPosition, 0, len(selection.Longs)+len(selection.Shorts)),
	}

	if n := len(selection.Longs); n > 0 {
		w := weightFor(n, c.longLeverage)
		for _, sec := range selection.Longs {
			target.Positions = append(target.Positions, contracts.TargetPosition{Security: sec, Weight: w, Side: contracts.SideLong})
		}
	}
	if n := len(selection.Shorts); n > 0 {
		w := weightFor(n, c.shortLeverage)
		for _, sec := range selection.Shorts {
			target.Positions = append(target.Positions, contracts.TargetPosition{Security: sec, Weight: w, Side: contracts.SideShort})
		}
	}

	liquidations := make([]contracts.Security, 0)
	for sec, pos := range holdings {
		if pos.Quantity == 0 || selection.Side(sec) != "" {
			continue
		}
		liquidations = append(liquidations, sec)
	}
	for _, sec := range contracts.SortSecurities(liquidations) {
		target.Positions = append(target.Positions, contracts.TargetPosition{Security: sec, Weight: 0, Side: contracts.SideLiquidate})
	}

	c.logger.WithFields(map[string]interface{}{
		"date":         dateString(selection.Date),
		"longs":        len(selection.Longs),
		"shorts":       len(selection.Shorts),
		"liquidations": len(liquidations),
		"long_weight":  target.SideWeight(contracts.SideLong),
		"short_weight": target.SideWeight(contracts.SideShort),
	}).Info("S5 target portfolio constructed")

	return target
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}
