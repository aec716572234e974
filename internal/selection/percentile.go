package selection

import (
	"math"
	"sort"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// Percentile is the linearly interpolated pct-th percentile of ascending values
// (position pct/100 * (n-1), the numpy default). values must not be empty.
func Percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := pct / 100 * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*frac
}

// PercentileBetween returns the securities whose value v satisfies P(lo) <= v <= P(hi), sorted
func PercentileBetween(values map[contracts.Security]float64, lo, hi float64) []contracts.Security {
	out := []contracts.Security{}
	if len(values) == 0 {
		return out
	}

	sorted := sortedValues(values)
	lower, upper := Percentile(sorted, lo), Percentile(sorted, hi)
	for sec, v := range values {
		if v >= lower && v <= upper {
			out = append(out, sec)
		}
	}
	return contracts.SortSecurities(out)
}

// Quantiles labels every security with an equal-frequency bucket 0..bins-1.
// Bucket k holds (P(100k/bins), P(100(k+1)/bins)]; the minimum lands in bucket 0.
func Quantiles(values map[contracts.Security]float64, bins int) map[contracts.Security]int {
	out := make(map[contracts.Security]int, len(values))
	if len(values) == 0 || bins < 1 {
		return out
	}

	sorted := sortedValues(values)
	edges := make([]float64, bins+1)
	for k := range edges {
		edges[k] = Percentile(sorted, 100*float64(k)/float64(bins))
	}

	for sec, v := range values {
		bucket := bins - 1
		for k := 0; k < bins; k++ {
			if v <= edges[k+1] {
				bucket = k
				break
			}
		}
		out[sec] = bucket
	}
	return out
}

func sortedValues(values map[contracts.Security]float64) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)
	return sorted
}
