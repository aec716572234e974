package contracts

import (
	"sort"
	"time"
)

// Exclusion reasons recorded in Universe.Excluded
const (
	ReasonInsufficientHistory = "insufficient_history"
	ReasonIlliquid            = "illiquid"
	ReasonPennyStock          = "penny_stock"
	ReasonEarningsWindow      = "earnings_window"
	ReasonFundamentals        = "fundamentals"
	ReasonFundamentalsMissing = "fundamentals_missing"
	ReasonNoSignal            = "no_signal"
)

// Universe represents the screened securities passed from S1 to S2
// ⭐ SSOT: S1 → S2 투자 가능 종목 전달
type Universe struct {
	Date       time.Time           `json:"date"`
	Securities []Security          `json:"securities"` // sorted
	Excluded   map[Security]string `json:"excluded"`   // security: reason
	TotalCount int                 `json:"total_count"`
}

// Contains reports whether sec passed every screen
func (u *Universe) Contains(sec Security) bool {
	i := sort.Search(len(u.Securities), func(i int) bool { return u.Securities[i] >= sec })
	return i < len(u.Securities) && u.Securities[i] == sec
}

// IsExcluded returns the exclusion reason, if any
func (u *Universe) IsExcluded(sec Security) (bool, string) {
	reason, exists := u.Excluded[sec]
	return exists, reason
}

// Count returns the number of eligible securities
func (u *Universe) Count() int {
	return len(u.Securities)
}
