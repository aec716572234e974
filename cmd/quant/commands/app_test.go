package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/brain"
	"github.com/wonny/aegis/momentum/internal/s0_data"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/config"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

type rejectingJob struct{ calls int }

func (j *rejectingJob) Name() string     { return "rebalance" }
func (j *rejectingJob) Schedule() string { return "0 0 10 * * MON-FRI" }

func (j *rejectingJob) Run(context.Context) error {
	j.calls++
	return errors.New("order rejected")
}

func TestNewScheduler_FailedRunIsNotRetried(t *testing.T) {
	cfg := strategyconfig.Default()
	a := &app{strategy: cfg, log: logger.Nop(), state: brain.NewState(cfg)}

	sched, err := a.newScheduler()
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel_open_orders", "rebalance"}, sched.GetAllJobs())

	require.NoError(t, sched.RemoveJob("rebalance"))
	job := &rejectingJob{}
	require.NoError(t, sched.AddJob(job))

	result, err := sched.RunJob(context.Background(), "rebalance")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "order rejected", result.Error)
	assert.Equal(t, 1, job.calls)
}

func TestWarnIfNoEarningsCalendar(t *testing.T) {
	withDates := s0_data.NewMemoryStore()
	withDates.AddEarnings("AAPL", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		guard  bool
		source *s0_data.MemoryStore
		want   bool
	}{
		{"guard on, no dates", true, s0_data.NewMemoryStore(), true},
		{"guard on, dates loaded", true, withDates, false},
		{"guard off, no dates", false, s0_data.NewMemoryStore(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			strategy := strategyconfig.Default()
			strategy.Universe.Earnings.Enable = tt.guard
			a := &app{
				cfg:          &config.Config{DataSource: "csv"},
				strategy:     strategy,
				log:          logger.NewWithWriter(&buf, "info"),
				fundamentals: tt.source,
			}

			assert.Equal(t, tt.want, a.warnIfNoEarningsCalendar(context.Background()))
			if tt.want {
				assert.Contains(t, buf.String(), "EARNINGS_CALENDAR_EMPTY")
			} else {
				assert.NotContains(t, buf.String(), "EARNINGS_CALENDAR_EMPTY")
			}
		})
	}
}
