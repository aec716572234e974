package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/aegis/momentum/internal/brain"
	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// CycleRunner runs one rebalance cycle for a session
type CycleRunner interface {
	Cycle(ctx context.Context, session time.Time, st *brain.State) (*contracts.CycleReport, error)
}

// RebalanceJob runs the strategy cycle once per weekday at the configured local time
// ⭐ SSOT: S0→S6 정기 실행은 이 Job 하나
type RebalanceJob struct {
	runner   CycleRunner
	state    *brain.State
	schedule string
	loc      *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// NewRebalanceJob creates a job firing at hhmm (HH:MM) in loc on weekdays
func NewRebalanceJob(runner CycleRunner, state *brain.State, hhmm string, loc *time.Location, log *logger.Logger) (*RebalanceJob, error) {
	schedule, err := CronSpec(hhmm, loc)
	if err != nil {
		return nil, fmt.Errorf("rebalance schedule: %w", err)
	}
	return &RebalanceJob{
		runner:   runner,
		state:    state,
		schedule: schedule,
		loc:      loc,
		now:      time.Now,
		logger:   log.Component("rebalance_job"),
	}, nil
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance"
}

// Schedule returns the cron schedule
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// Run executes one cycle for today's session
func (j *RebalanceJob) Run(ctx context.Context) error {
	session := SessionDate(j.now(), j.loc)

	report, err := j.runner.Cycle(ctx, session, j.state)
	if err != nil {
		return fmt.Errorf("cycle %s: %w", session.Format("2006-01-02"), err)
	}

	j.logger.WithFields(map[string]interface{}{
		"session":    session.Format("2006-01-02"),
		"rebalanced": report.Rebalanced,
		"emitted":    len(report.Emitted),
		"deferred":   len(report.Deferred),
	}).Info("Rebalance job completed")

	return nil
}

// SessionDate is the calendar date of t in the exchange zone, as UTC midnight
func SessionDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CronSpec converts a local HH:MM into a weekday cron spec with seconds
func CronSpec(hhmm string, loc *time.Location) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	spec := fmt.Sprintf("0 %d %d * * MON-FRI", t.Minute(), t.Hour())
	if loc != nil {
		spec = fmt.Sprintf("CRON_TZ=%s %s", loc.String(), spec)
	}
	return spec, nil
}
