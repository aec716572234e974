package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// Collector turns cycle reports into Prometheus series. It owns its registry so
// several collectors can live in one process (tests, backtests).
type Collector struct {
	registry *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec
	OrdersTotal    *prometheus.CounterVec
	SelectionSize  *prometheus.GaugeVec
	Eligible       prometheus.Gauge
	Evaluated      prometheus.Gauge
	CycleDuration  prometheus.Histogram
	LastCycleEpoch prometheus.Gauge
}

// New creates and registers every series
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "momentum_cycles_total", Help: "Rebalance cycles completed"},
			[]string{"mode"},
		),
		OrdersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "momentum_order_instructions_total", Help: "Per-security dispatch outcomes"},
			[]string{"outcome"},
		),
		SelectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "momentum_selection_size", Help: "Securities selected in the last cycle"},
			[]string{"side"},
		),
		Eligible: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "momentum_universe_eligible", Help: "Securities eligible in the last cycle"},
		),
		Evaluated: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "momentum_universe_evaluated", Help: "Securities in the last snapshot"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "momentum_cycle_duration_seconds", Help: "Wall time of one cycle", Buckets: prometheus.DefBuckets},
		),
		LastCycleEpoch: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "momentum_last_cycle_timestamp_seconds", Help: "Unix time the last cycle finished"},
		),
	}

	c.registry.MustRegister(
		c.CyclesTotal, c.OrdersTotal, c.SelectionSize, c.Eligible,
		c.Evaluated, c.CycleDuration, c.LastCycleEpoch,
	)
	return c
}

// ObserveCycle records one report
func (c *Collector) ObserveCycle(report *contracts.CycleReport) {
	if report == nil || !report.Rebalanced {
		return
	}

	c.CyclesTotal.WithLabelValues(string(report.Mode)).Inc()
	c.OrdersTotal.WithLabelValues("emitted").Add(float64(len(report.Emitted)))
	c.OrdersTotal.WithLabelValues("deferred").Add(float64(len(report.Deferred)))
	c.OrdersTotal.WithLabelValues("untradeable").Add(float64(len(report.Untradeable)))

	c.SelectionSize.WithLabelValues("long").Set(float64(len(report.Selection.Longs)))
	c.SelectionSize.WithLabelValues("short").Set(float64(len(report.Selection.Shorts)))
	c.Eligible.Set(float64(report.Eligible))
	c.Evaluated.Set(float64(report.Evaluated))

	if !report.FinishedAt.IsZero() {
		c.CycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
		c.LastCycleEpoch.Set(float64(report.FinishedAt.Unix()))
	}
}

// Gatherer exposes the registry
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
