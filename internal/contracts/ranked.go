package contracts

import "time"

// RankedSecurity carries the ranks of one security from S4 to selection
// ⭐ SSOT: S4 랭킹 결과 전달
type RankedSecurity struct {
	Security     Security `json:"security"`
	CrossRank    float64  `json:"cross_rank"` // 1-based, ties averaged
	AbsRank      float64  `json:"abs_rank"`
	CombinedRank float64  `json:"combined_rank"` // CrossRank + AbsRank
}

// SelectionSet is the disjoint long/short pick of one rebalance
type SelectionSet struct {
	Date   time.Time  `json:"date"`
	Longs  []Security `json:"longs"`  // sorted
	Shorts []Security `json:"shorts"` // sorted
}

// IsEmpty reports whether neither side selected anything
func (s *SelectionSet) IsEmpty() bool {
	return len(s.Longs) == 0 && len(s.Shorts) == 0
}

// Side returns SideLong, SideShort, or "" for sec
func (s *SelectionSet) Side(sec Security) PositionSide {
	for _, l := range s.Longs {
		if l == sec {
			return SideLong
		}
	}
	for _, sh := range s.Shorts {
		if sh == sec {
			return SideShort
		}
	}
	return ""
}
