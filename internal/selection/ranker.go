package selection

import (
	"sort"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// Ranker implements S4: combined momentum rank and percentile bands
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	longs  strategyconfig.Band
	shorts strategyconfig.Band
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(cfg strategyconfig.Ranking, log *logger.Logger) *Ranker {
	return &Ranker{
		longs:  cfg.Longs,
		shorts: cfg.Shorts,
		logger: log.Component("selection"),
	}
}

// Rank ranks both momentum measures ascending and sums them. Output is sorted by security.
func (r *Ranker) Rank(frame *contracts.SignalFrame) []contracts.RankedSecurity {
	cross := make(map[contracts.Security]float64, frame.Count())
	abs := make(map[contracts.Security]float64, frame.Count())
	for sec, score := range frame.Scores {
		cross[sec] = score.CrossSectional
		abs[sec] = score.Absolute
	}

	crossRank := AverageRanks(cross)
	absRank := AverageRanks(abs)

	ranked := make([]contracts.RankedSecurity, 0, frame.Count())
	for sec := range frame.Scores {
		ranked = append(ranked, contracts.RankedSecurity{
			Security:     sec,
			CrossRank:    crossRank[sec],
			AbsRank:      absRank[sec],
			CombinedRank: crossRank[sec] + absRank[sec],
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Security < ranked[j].Security })
	return ranked
}

// Select picks the long and short bands of the combined rank
func (r *Ranker) Select(date time.Time, ranked []contracts.RankedSecurity) contracts.SelectionSet {
	combined := make(map[contracts.Security]float64, len(ranked))
	for _, rs := range ranked {
		combined[rs.Security] = rs.CombinedRank
	}

	set := Disjoint(date,
		PercentileBetween(combined, r.longs.MinPct, r.longs.MaxPct),
		PercentileBetween(combined, r.shorts.MinPct, r.shorts.MaxPct),
	)

	r.logger.WithFields(map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"ranked": len(ranked),
		"longs":  len(set.Longs),
		"shorts": len(set.Shorts),
	}).Info("S4 selection complete")

	return set
}

// AverageRanks assigns 1-based ascending ranks; equal values share the mean of the
// positions they span. Ordering is stable on security id.
func AverageRanks(values map[contracts.Security]float64) map[contracts.Security]float64 {
	secs := make([]contracts.Security, 0, len(values))
	for sec := range values {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool {
		vi, vj := values[secs[i]], values[secs[j]]
		if vi != vj {
			return vi < vj
		}
		return secs[i] < secs[j]
	})

	ranks := make(map[contracts.Security]float64, len(secs))
	for i := 0; i < len(secs); {
		j := i
		for j+1 < len(secs) && values[secs[j+1]] == values[secs[i]] {
			j++
		}
		// positions i..j are 0-based; ranks are i+1..j+1
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[secs[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Disjoint drops any security present on both sides
func Disjoint(date time.Time, longs, shorts []contracts.Security) contracts.SelectionSet {
	inShorts := make(map[contracts.Security]bool, len(shorts))
	for _, sec := range shorts {
		inShorts[sec] = true
	}
	both := make(map[contracts.Security]bool)
	for _, sec := range longs {
		if inShorts[sec] {
			both[sec] = true
		}
	}

	set := contracts.SelectionSet{Date: date, Longs: []contracts.Security{}, Shorts: []contracts.Security{}}
	for _, sec := range longs {
		if !both[sec] {
			set.Longs = append(set.Longs, sec)
		}
	}
	for _, sec := range shorts {
		if !both[sec] {
			set.Shorts = append(set.Shorts, sec)
		}
	}
	contracts.SortSecurities(set.Longs)
	contracts.SortSecurities(set.Shorts)
	return set
}
