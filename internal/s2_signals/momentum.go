package s2_signals

import (
	"sort"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// MomentumParams are the trailing windows of both momentum measures
type MomentumParams struct {
	WindowDays         int
	ShiftDays          int
	AbsoluteWindowDays int
}

// CalendarDays is the number of sessions a security needs for both measures
func (p MomentumParams) CalendarDays() int {
	if p.AbsoluteWindowDays > p.WindowDays {
		return p.AbsoluteWindowDays
	}
	return p.WindowDays
}

// ComputeMomentum scores every security of closes that has a positive close on each
// of the last CalendarDays() sessions. Everything else lands in missing with a reason.
// ⭐ SSOT: 모멘텀 시그널 계산은 여기서만
func ComputeMomentum(closes map[contracts.Security]contracts.Series, p MomentumParams) (map[contracts.Security]contracts.MomentumScore, map[contracts.Security]string) {
	scores := make(map[contracts.Security]contracts.MomentumScore)
	missing := make(map[contracts.Security]string)

	calendar := sessionCalendar(closes, p.CalendarDays())
	if len(calendar) < p.CalendarDays() || p.ShiftDays >= p.WindowDays {
		for sec := range closes {
			missing[sec] = contracts.ReasonInsufficientHistory
		}
		return scores, missing
	}

	// Complete price matrix, one column per security
	secs := make([]contracts.Security, 0, len(closes))
	matrix := make(map[contracts.Security][]float64, len(closes))
	for sec, series := range closes {
		values, reason := alignCloses(series, calendar)
		if reason != "" {
			missing[sec] = reason
			continue
		}
		secs = append(secs, sec)
		matrix[sec] = values
	}
	contracts.SortSecurities(secs)

	cross := CrossSectionalMomentum(secs, matrix, p.WindowDays, p.ShiftDays)
	for _, sec := range secs {
		scores[sec] = contracts.MomentumScore{
			CrossSectional: cross[sec],
			Absolute:       AbsoluteMomentum(matrix[sec], p.AbsoluteWindowDays),
		}
	}
	return scores, missing
}

// CrossSectionalMomentum: R[t] = p[t]/p[t-shift] over the last window rows, demeaned
// per row across secs, then averaged over rows. Every column must hold at least window values.
func CrossSectionalMomentum(secs []contracts.Security, matrix map[contracts.Security][]float64, window, shift int) map[contracts.Security]float64 {
	out := make(map[contracts.Security]float64, len(secs))
	if len(secs) == 0 {
		return out
	}

	rows := window - shift
	sums := make([]float64, len(secs))
	ratios := make([]float64, len(secs))
	for t := 0; t < rows; t++ {
		rowMean := 0.0
		for j, sec := range secs {
			col := matrix[sec]
			base := len(col) - window
			ratios[j] = col[base+shift+t] / col[base+t]
			rowMean += ratios[j]
		}
		rowMean /= float64(len(secs))

		for j := range secs {
			sums[j] += ratios[j] - rowMean
		}
	}

	for j, sec := range secs {
		out[sec] = sums[j] / float64(rows)
	}
	return out
}

// AbsoluteMomentum is (last - first) / first over the trailing window values
func AbsoluteMomentum(values []float64, window int) float64 {
	tail := values[len(values)-window:]
	first, last := tail[0], tail[len(tail)-1]
	return (last - first) / first
}

// sessionCalendar returns the last n distinct session dates seen across all series
func sessionCalendar(closes map[contracts.Security]contracts.Series, n int) []time.Time {
	seen := make(map[int64]time.Time)
	for _, series := range closes {
		for _, p := range series {
			seen[p.Date.Unix()] = p.Date
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) > n {
		dates = dates[len(dates)-n:]
	}
	return dates
}

// alignCloses picks the value of every calendar date from series
func alignCloses(series contracts.Series, calendar []time.Time) ([]float64, string) {
	values := make([]float64, 0, len(calendar))
	i := 0
	for _, d := range calendar {
		for i < len(series) && series[i].Date.Before(d) {
			i++
		}
		if i == len(series) || !series[i].Date.Equal(d) {
			return nil, contracts.ReasonInsufficientHistory
		}
		if !(series[i].Value > 0) {
			return nil, contracts.ReasonNoSignal
		}
		values = append(values, series[i].Value)
	}
	return values, ""
}
