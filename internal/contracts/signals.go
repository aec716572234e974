package contracts

import "time"

// SignalFrame carries per-security momentum scores from S2 to S4
// ⭐ SSOT: S2 → S4 시그널 데이터 전달
type SignalFrame struct {
	Date    time.Time                  `json:"date"`
	Scores  map[Security]MomentumScore `json:"scores"`
	Missing map[Security]string        `json:"missing"` // security: reason
}

// MomentumScore holds both momentum measures of one security
type MomentumScore struct {
	// CrossSectional is the mean over the window of the demeaned shift-ratio
	CrossSectional float64 `json:"cross_sectional"`
	// Absolute is (last - first) / first over the trailing window
	Absolute float64 `json:"absolute"`
}

// Get returns the scores of sec
func (f *SignalFrame) Get(sec Security) (MomentumScore, bool) {
	s, ok := f.Scores[sec]
	return s, ok
}

// Count returns the number of scored securities
func (f *SignalFrame) Count() int {
	return len(f.Scores)
}

// ReturnSet carries trailing N-day returns for the short-horizon modes
type ReturnSet struct {
	Date     time.Time            `json:"date"`
	Lookback int                  `json:"lookback"`
	Returns  map[Security]float64 `json:"returns"`
	Missing  map[Security]string  `json:"missing"`
}
