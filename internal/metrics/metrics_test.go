package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := c.Gatherer().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}
	return byName
}

func labelled(mf *dto.MetricFamily, name, value string) *dto.Metric {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name && l.GetValue() == value {
				return m
			}
		}
	}
	return nil
}

func sampleReport() *contracts.CycleReport {
	start := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	return &contracts.CycleReport{
		Mode:       contracts.ModeMomentum,
		Rebalanced: true,
		Evaluated:  500,
		Eligible:   320,
		Selection: contracts.SelectionSet{
			Longs:  []contracts.Security{"AAPL", "MSFT", "NVDA"},
			Shorts: []contracts.Security{"XOM"},
		},
		Emitted:     []contracts.Security{"AAPL", "MSFT", "XOM"},
		Deferred:    []contracts.Security{"NVDA"},
		Untradeable: []contracts.Security{},
		StartedAt:   start,
		FinishedAt:  start.Add(2 * time.Second),
	}
}

func TestObserveCycle(t *testing.T) {
	c := New()
	c.ObserveCycle(sampleReport())
	c.ObserveCycle(sampleReport())

	mfs := gather(t, c)

	cycles := labelled(mfs["momentum_cycles_total"], "mode", "momentum")
	require.NotNil(t, cycles)
	assert.Equal(t, 2.0, cycles.GetCounter().GetValue())

	emitted := labelled(mfs["momentum_order_instructions_total"], "outcome", "emitted")
	require.NotNil(t, emitted)
	assert.Equal(t, 6.0, emitted.GetCounter().GetValue())

	longs := labelled(mfs["momentum_selection_size"], "side", "long")
	require.NotNil(t, longs)
	assert.Equal(t, 3.0, longs.GetGauge().GetValue())

	assert.Equal(t, 320.0, mfs["momentum_universe_eligible"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(2), mfs["momentum_cycle_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestObserveCycle_IgnoresSkipped(t *testing.T) {
	c := New()
	c.ObserveCycle(&contracts.CycleReport{Mode: contracts.ModeMomentum})
	c.ObserveCycle(nil)

	mfs := gather(t, c)
	assert.Nil(t, mfs["momentum_cycles_total"])
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveCycle(sampleReport())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "momentum_cycles_total")
}
