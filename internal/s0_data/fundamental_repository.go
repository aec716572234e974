package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// FundamentalRepository serves fundamentals and the earnings calendar from Postgres
// and implements contracts.Fundamentals
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamentals repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// Latest returns the newest value visible on asOf
func (r *FundamentalRepository) Latest(ctx context.Context, metric contracts.Metric, sec contracts.Security, asOf time.Time) (float64, bool, error) {
	switch metric {
	case contracts.MetricDaysUntilNextEarnings, contracts.MetricDaysSincePrevEarnings:
		return r.earningsDistance(ctx, metric, sec, asOf)
	}

	query := `
		SELECT value
		FROM data.fundamentals
		WHERE symbol = $1 AND metric = $2 AND as_of <= $3
		ORDER BY as_of DESC
		LIMIT 1
	`

	var v float64
	err := r.pool.QueryRow(ctx, query, string(sec), string(metric), asOf).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query %s for %s: %w", metric, sec, err)
	}
	return v, true, nil
}

func (r *FundamentalRepository) earningsDistance(ctx context.Context, metric contracts.Metric, sec contracts.Security, asOf time.Time) (float64, bool, error) {
	query := `
		SELECT MIN(announce_date) FROM data.earnings_calendar
		WHERE symbol = $1 AND announce_date >= $2
	`
	if metric == contracts.MetricDaysSincePrevEarnings {
		query = `
			SELECT MAX(announce_date) FROM data.earnings_calendar
			WHERE symbol = $1 AND announce_date <= $2
		`
	}

	var date *time.Time
	if err := r.pool.QueryRow(ctx, query, string(sec), asOf).Scan(&date); err != nil {
		return 0, false, fmt.Errorf("query earnings calendar for %s: %w", sec, err)
	}
	if date == nil {
		return 0, false, nil
	}

	day := truncateDay(asOf)
	if metric == contracts.MetricDaysSincePrevEarnings {
		return float64(businessDaysBetween(truncateDay(*date), day)), true, nil
	}
	return float64(businessDaysBetween(day, truncateDay(*date))), true, nil
}

// HasEarnings reports whether the earnings calendar holds any row
func (r *FundamentalRepository) HasEarnings(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM data.earnings_calendar)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("query earnings calendar: %w", err)
	}
	return exists, nil
}

// SaveFundamental upserts one metric value
func (r *FundamentalRepository) SaveFundamental(ctx context.Context, sec contracts.Security, metric contracts.Metric, asOf time.Time, value float64) error {
	query := `
		INSERT INTO data.fundamentals (symbol, as_of, metric, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, as_of, metric) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := r.pool.Exec(ctx, query, string(sec), asOf, string(metric), value); err != nil {
		return fmt.Errorf("upsert %s for %s: %w", metric, sec, err)
	}
	return nil
}

// SaveEarnings records an announcement date
func (r *FundamentalRepository) SaveEarnings(ctx context.Context, sec contracts.Security, date time.Time) error {
	query := `
		INSERT INTO data.earnings_calendar (symbol, announce_date)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, string(sec), date); err != nil {
		return fmt.Errorf("insert earnings date for %s: %w", sec, err)
	}
	return nil
}
