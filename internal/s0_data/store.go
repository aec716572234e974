package s0_data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// MemoryStore is an in-process market data and fundamentals source.
// It backs the CSV data source, backtests and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	bars         map[contracts.Security][]contracts.Bar // ascending by date
	fundamentals map[contracts.Security]map[contracts.Metric][]contracts.Point
	earnings     map[contracts.Security][]time.Time // ascending
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bars:         make(map[contracts.Security][]contracts.Bar),
		fundamentals: make(map[contracts.Security]map[contracts.Metric][]contracts.Point),
		earnings:     make(map[contracts.Security][]time.Time),
	}
}

// AddBars merges bars into the store; a bar on an existing date replaces it
func (s *MemoryStore) AddBars(bars ...contracts.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[contracts.Security]bool)
	for _, b := range bars {
		b.Date = truncateDay(b.Date)
		existing := s.bars[b.Security]
		replaced := false
		for i := range existing {
			if existing[i].Date.Equal(b.Date) {
				existing[i] = b
				replaced = true
				break
			}
		}
		if !replaced {
			s.bars[b.Security] = append(existing, b)
		}
		touched[b.Security] = true
	}

	for sec := range touched {
		series := s.bars[sec]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	}
}

// SetFundamental records a value that becomes visible from asOf on
func (s *MemoryStore) SetFundamental(sec contracts.Security, metric contracts.Metric, asOf time.Time, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fundamentals[sec] == nil {
		s.fundamentals[sec] = make(map[contracts.Metric][]contracts.Point)
	}
	points := append(s.fundamentals[sec][metric], contracts.Point{Date: truncateDay(asOf), Value: value})
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	s.fundamentals[sec][metric] = points
}

// AddEarnings records an earnings announcement date
func (s *MemoryStore) AddEarnings(sec contracts.Security, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := append(s.earnings[sec], truncateDay(date))
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	s.earnings[sec] = dates
}

// HasEarnings reports whether any earnings date was loaded
func (s *MemoryStore) HasEarnings(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.earnings) > 0, nil
}

// Sessions returns every date that has at least one bar, ascending
func (s *MemoryStore) Sessions() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[time.Time]bool)
	for _, series := range s.bars {
		for _, b := range series {
			seen[b.Date] = true
		}
	}

	sessions := make([]time.Time, 0, len(seen))
	for d := range seen {
		sessions = append(sessions, d)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Before(sessions[j]) })
	return sessions
}

// Securities lists securities with a bar on or before asOf
func (s *MemoryStore) Securities(_ context.Context, asOf time.Time) ([]contracts.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asOf = truncateDay(asOf)
	var secs []contracts.Security
	for sec, series := range s.bars {
		if len(series) > 0 && !series[0].Date.After(asOf) {
			secs = append(secs, sec)
		}
	}
	return contracts.SortSecurities(secs), nil
}

// History returns up to window bars ending at asOf
func (s *MemoryStore) History(_ context.Context, sec contracts.Security, field contracts.Field, window int, freq contracts.Frequency, asOf time.Time) (contracts.Series, error) {
	if freq != contracts.FrequencyDaily {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedFrequency, freq)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.bars[sec]
	end := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(truncateDay(asOf)) })
	start := end - window
	if start < 0 {
		start = 0
	}

	out := make(contracts.Series, 0, end-start)
	for _, b := range bars[start:end] {
		v, err := barValue(b, field)
		if err != nil {
			return nil, err
		}
		out = append(out, contracts.Point{Date: b.Date, Value: v})
	}
	return out, nil
}

// Current returns the last value on or before asOf
func (s *MemoryStore) Current(ctx context.Context, sec contracts.Security, field contracts.Field, asOf time.Time) (float64, error) {
	series, err := s.History(ctx, sec, field, 1, contracts.FrequencyDaily, asOf)
	if err != nil {
		return 0, err
	}
	last, ok := series.Last()
	if !ok {
		return 0, fmt.Errorf("%w: %s", contracts.ErrUnknownSecurity, sec)
	}
	return last.Value, nil
}

// Latest implements contracts.Fundamentals
func (s *MemoryStore) Latest(_ context.Context, metric contracts.Metric, sec contracts.Security, asOf time.Time) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asOf = truncateDay(asOf)
	switch metric {
	case contracts.MetricDaysUntilNextEarnings:
		v, ok := daysUntilNext(s.earnings[sec], asOf)
		return v, ok, nil
	case contracts.MetricDaysSincePrevEarnings:
		v, ok := daysSincePrevious(s.earnings[sec], asOf)
		return v, ok, nil
	}

	points := s.fundamentals[sec][metric]
	idx := sort.Search(len(points), func(i int) bool { return points[i].Date.After(asOf) })
	if idx == 0 {
		return 0, false, nil
	}
	return points[idx-1].Value, true, nil
}

func barValue(b contracts.Bar, field contracts.Field) (float64, error) {
	switch field {
	case contracts.FieldClose, contracts.FieldPrice:
		return b.Close, nil
	case contracts.FieldVolume:
		return b.Volume, nil
	default:
		return 0, fmt.Errorf("unknown field %q", field)
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
