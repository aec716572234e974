package database

import (
	"context"
	"fmt"
)

// schema holds every table the repositories read or write.
// Statements are idempotent so EnsureSchema can run on every start.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS selection`,

	`CREATE TABLE IF NOT EXISTS data.securities (
		symbol     TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		tradable   BOOLEAN NOT NULL DEFAULT TRUE,
		listed_on  DATE,
		delisted_on DATE
	)`,

	`CREATE TABLE IF NOT EXISTS data.daily_prices (
		symbol     TEXT NOT NULL,
		trade_date DATE NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		volume     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS data.fundamentals (
		symbol     TEXT NOT NULL,
		as_of      DATE NOT NULL,
		metric     TEXT NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, as_of, metric)
	)`,

	`CREATE TABLE IF NOT EXISTS data.earnings_calendar (
		symbol        TEXT NOT NULL,
		announce_date DATE NOT NULL,
		PRIMARY KEY (symbol, announce_date)
	)`,

	`CREATE TABLE IF NOT EXISTS selection.runs (
		run_id      UUID PRIMARY KEY,
		run_date    DATE NOT NULL,
		mode        TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		rebalanced  BOOLEAN NOT NULL,
		evaluated   INT NOT NULL,
		eligible    INT NOT NULL,
		report      JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS selection.targets (
		run_id        UUID NOT NULL REFERENCES selection.runs(run_id) ON DELETE CASCADE,
		symbol        TEXT NOT NULL,
		side          TEXT NOT NULL,
		weight        DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, symbol)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_selection_runs_date ON selection.runs (run_date DESC)`,
}

// EnsureSchema creates the tables used by the repositories
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
