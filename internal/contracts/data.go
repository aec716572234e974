package contracts

import (
	"errors"
	"sort"
	"time"
)

// Security is an opaque instrument identifier (ticker symbol).
// Every ordered walk over securities uses its lexical order.
type Security string

// SortSecurities sorts in place and returns the slice
func SortSecurities(secs []Security) []Security {
	sort.Slice(secs, func(i, j int) bool { return secs[i] < secs[j] })
	return secs
}

// Field names a per-session market data column
type Field string

const (
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
	// FieldPrice is the latest traded price; equal to close for daily data
	FieldPrice Field = "price"
)

// Frequency of a history request. Only daily bars are supported.
type Frequency string

const FrequencyDaily Frequency = "1d"

// ErrUnsupportedFrequency is returned for any frequency other than FrequencyDaily
var ErrUnsupportedFrequency = errors.New("unsupported history frequency")

// ErrUnknownSecurity is returned when a collaborator has never heard of a security
var ErrUnknownSecurity = errors.New("unknown security")

// Point is one session value
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ascending-by-date history of one field for one security
type Series []Point

// Values returns the raw values in date order
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Tail returns the last n points, or the whole series if shorter
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Last returns the most recent point
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Bar is one stored daily record
type Bar struct {
	Security Security  `json:"security"`
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Metric names a fundamentals value
type Metric string

const (
	MetricROE                   Metric = "roe"
	MetricROA                   Metric = "roa"
	MetricPE                    Metric = "pe_ratio"
	MetricPS                    Metric = "ps_ratio"
	MetricPCF                   Metric = "pcf_ratio"
	MetricDaysUntilNextEarnings Metric = "days_until_next_earnings"
	MetricDaysSincePrevEarnings Metric = "days_since_previous_earnings"
)

// MarketSnapshot is everything S1/S2 read for one session, fetched once by S0.
// Stages downstream of S0 are pure functions over it.
// ⭐ SSOT: S0 → S1/S2 데이터 스냅샷 전달
type MarketSnapshot struct {
	Date       time.Time           `json:"date"`
	Securities []Security          `json:"securities"` // sorted
	Closes     map[Security]Series `json:"closes"`
	Volumes    map[Security]Series `json:"volumes"`
	// Fundamentals holds known values only; an absent key means unknown
	Fundamentals map[Security]map[Metric]float64 `json:"fundamentals"`
}

// Fundamental returns a known fundamentals value
func (s *MarketSnapshot) Fundamental(sec Security, m Metric) (float64, bool) {
	v, ok := s.Fundamentals[sec][m]
	return v, ok
}
