package brain

import (
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/portfolio"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
)

// State is everything that survives from one cycle to the next.
// Only the orchestrator mutates it, one cycle at a time, and only when the
// cycle's orders were dispatched without error.
type State struct {
	LastRebalance time.Time              `json:"last_rebalance"`
	LongHold      *portfolio.HoldBuffer  `json:"long_hold"`
	ShortHold     *portfolio.HoldBuffer  `json:"short_hold"`
	LastReport    *contracts.CycleReport `json:"last_report,omitempty"`
}

// NewState creates an empty state with seeded hold buffers
func NewState(cfg *strategyconfig.Config) *State {
	return &State{
		LongHold:  portfolio.NewHoldBuffer(cfg.Hold.DaysToHold),
		ShortHold: portfolio.NewHoldBuffer(cfg.Hold.DaysToHold),
	}
}

// clone copies the state so a cycle can stage changes and commit them only on success
func (s *State) clone() *State {
	c := *s
	if s.LongHold != nil {
		c.LongHold = s.LongHold.Clone()
	}
	if s.ShortHold != nil {
		c.ShortHold = s.ShortHold.Clone()
	}
	return &c
}

// ShouldRebalance applies the date rule: the first session of a new ISO week, of a
// new month, or of every day, compared with the last rebalance
func ShouldRebalance(rule string, last, session time.Time) bool {
	if last.IsZero() {
		return true
	}
	switch rule {
	case strategyconfig.DateRuleWeekStart:
		ly, lw := last.ISOWeek()
		sy, sw := session.ISOWeek()
		return ly != sy || lw != sw
	case strategyconfig.DateRuleMonthStart:
		return last.Year() != session.Year() || last.Month() != session.Month()
	default:
		return !sameDay(last, session)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
