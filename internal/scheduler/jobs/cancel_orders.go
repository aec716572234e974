package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis/momentum/pkg/logger"
)

// OrderCanceler cancels every open order
type OrderCanceler interface {
	CancelOpenOrders(ctx context.Context) (int, error)
}

// CancelOrdersJob clears unfilled orders before the close so the next rebalance
// does not defer on stale ones
type CancelOrdersJob struct {
	canceler OrderCanceler
	schedule string
	logger   *logger.Logger
}

// NewCancelOrdersJob creates a job firing at hhmm (HH:MM) in loc on weekdays
func NewCancelOrdersJob(canceler OrderCanceler, hhmm string, loc *time.Location, log *logger.Logger) (*CancelOrdersJob, error) {
	schedule, err := CronSpec(hhmm, loc)
	if err != nil {
		return nil, fmt.Errorf("cancel schedule: %w", err)
	}
	return &CancelOrdersJob{
		canceler: canceler,
		schedule: schedule,
		logger:   log.Component("cancel_orders_job"),
	}, nil
}

// Name returns the job name
func (j *CancelOrdersJob) Name() string {
	return "cancel_open_orders"
}

// Schedule returns the cron schedule
func (j *CancelOrdersJob) Schedule() string {
	return j.schedule
}

// Run cancels open orders
func (j *CancelOrdersJob) Run(ctx context.Context) error {
	n, err := j.canceler.CancelOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("cancel open orders (%d canceled): %w", n, err)
	}

	j.logger.WithField("canceled", n).Info("Open orders canceled")
	return nil
}
