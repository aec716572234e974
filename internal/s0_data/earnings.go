package s0_data

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// EarningsCalendar is a fundamentals source that knows whether it holds any earnings dates
type EarningsCalendar interface {
	HasEarnings(ctx context.Context) (bool, error)
}

// MissingEarningsCalendar is true when source holds no earnings dates at all. With the
// earnings guard on, every security then has unknown days since the previous announcement
// and is excluded. Sources that cannot tell report false.
func MissingEarningsCalendar(ctx context.Context, source contracts.Fundamentals) (bool, error) {
	cal, ok := source.(EarningsCalendar)
	if !ok {
		return false, nil
	}
	has, err := cal.HasEarnings(ctx)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// Earnings distances are counted in business days (Mon-Fri), the way the
// upstream earnings calendar reports them. Exchange holidays are not removed.

// daysUntilNext counts business days from asOf to the next announcement on or after asOf
func daysUntilNext(dates []time.Time, asOf time.Time) (float64, bool) {
	idx := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(asOf) })
	if idx == len(dates) {
		return 0, false
	}
	return float64(businessDaysBetween(asOf, dates[idx])), true
}

// daysSincePrevious counts business days from the last announcement on or before asOf
func daysSincePrevious(dates []time.Time, asOf time.Time) (float64, bool) {
	idx := sort.Search(len(dates), func(i int) bool { return dates[i].After(asOf) })
	if idx == 0 {
		return 0, false
	}
	return float64(businessDaysBetween(dates[idx-1], asOf)), true
}

// businessDaysBetween counts weekdays in (from, to]
func businessDaysBetween(from, to time.Time) int {
	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}
