package s2_signals

import (
	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Builder turns a snapshot and its universe into signals
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	momentum MomentumParams
	lookback int
	logger   *logger.Logger
}

// NewBuilder creates a new signal builder
func NewBuilder(cfg strategyconfig.Signals, log *logger.Logger) *Builder {
	return &Builder{
		momentum: MomentumParams{
			WindowDays:         cfg.Momentum.WindowDays,
			ShiftDays:          cfg.Momentum.ShiftDays,
			AbsoluteWindowDays: cfg.Momentum.AbsoluteWindowDays,
		},
		lookback: cfg.Reversal.ReturnsLookbackDays,
		logger:   log.Component("s2_signals"),
	}
}

// Build scores the universe. The cross-sectional mean runs over every snapshot
// security with a complete window; only universe members are returned.
func (b *Builder) Build(snap *contracts.MarketSnapshot, universe *contracts.Universe) *contracts.SignalFrame {
	all, missing := ComputeMomentum(snap.Closes, b.momentum)

	frame := &contracts.SignalFrame{
		Date:    snap.Date,
		Scores:  make(map[contracts.Security]contracts.MomentumScore, universe.Count()),
		Missing: make(map[contracts.Security]string),
	}
	for _, sec := range universe.Securities {
		if score, ok := all[sec]; ok {
			frame.Scores[sec] = score
			continue
		}
		reason, ok := missing[sec]
		if !ok {
			reason = contracts.ReasonInsufficientHistory
		}
		frame.Missing[sec] = reason
	}

	b.logger.WithFields(map[string]interface{}{
		"date":         snap.Date.Format("2006-01-02"),
		"universe":     universe.Count(),
		"cross_domain": len(all),
		"scored":       frame.Count(),
		"missing":      len(frame.Missing),
	}).Info("S2 momentum signals computed")

	return frame
}

// BuildReturns computes trailing returns over the universe for the short-horizon modes
func (b *Builder) BuildReturns(snap *contracts.MarketSnapshot, universe *contracts.Universe) *contracts.ReturnSet {
	set := &contracts.ReturnSet{
		Date:     snap.Date,
		Lookback: b.lookback,
		Returns:  make(map[contracts.Security]float64, universe.Count()),
		Missing:  make(map[contracts.Security]string),
	}
	for _, sec := range universe.Securities {
		ret, ok := TrailingReturn(snap.Closes[sec], b.lookback)
		if !ok {
			set.Missing[sec] = contracts.ReasonInsufficientHistory
			continue
		}
		set.Returns[sec] = ret
	}

	b.logger.WithFields(map[string]interface{}{
		"date":     snap.Date.Format("2006-01-02"),
		"lookback": b.lookback,
		"scored":   len(set.Returns),
		"missing":  len(set.Missing),
	}).Info("S2 trailing returns computed")

	return set
}
