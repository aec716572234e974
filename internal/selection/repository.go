package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// ErrNoCycles is returned by LatestCycle before any cycle was saved
var ErrNoCycles = errors.New("no cycle recorded")

// Repository handles cycle persistence
// ⭐ SSOT: Selection 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveCycle upserts the run row and replaces its target rows
func (r *Repository) SaveCycle(ctx context.Context, report *contracts.CycleReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO selection.runs (
			run_id, run_date, mode, config_hash, rebalanced, evaluated, eligible, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			rebalanced = EXCLUDED.rebalanced,
			evaluated = EXCLUDED.evaluated,
			eligible = EXCLUDED.eligible,
			report = EXCLUDED.report
	`, report.RunID, report.Date, string(report.Mode), report.ConfigHash,
		report.Rebalanced, report.Evaluated, report.Eligible, reportJSON)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM selection.targets WHERE run_id = $1", report.RunID); err != nil {
		return fmt.Errorf("failed to delete old targets: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range report.Targets {
		batch.Queue(`
			INSERT INTO selection.targets (run_id, symbol, side, weight)
			VALUES ($1, $2, $3, $4)
		`, report.RunID, string(t.Security), string(t.Side), t.Weight)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert targets: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestCycle returns the most recent report
func (r *Repository) LatestCycle(ctx context.Context) (*contracts.CycleReport, error) {
	reports, err := r.ListCycles(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNoCycles
	}
	return reports[0], nil
}

// ListCycles returns up to limit reports, newest first
func (r *Repository) ListCycles(ctx context.Context, limit int) ([]*contracts.CycleReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT report
		FROM selection.runs
		ORDER BY run_date DESC, created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	reports := make([]*contracts.CycleReport, 0, limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var report contracts.CycleReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reports, nil
}

// MemoryRepository keeps reports in process, for csv-backed runs and backtests
type MemoryRepository struct {
	mu      sync.RWMutex
	reports []*contracts.CycleReport // oldest first
	max     int
}

// NewMemoryRepository keeps at most max reports (0 = unbounded)
func NewMemoryRepository(max int) *MemoryRepository {
	return &MemoryRepository{max: max}
}

// SaveCycle appends the report, replacing one with the same run id
func (m *MemoryRepository) SaveCycle(_ context.Context, report *contracts.CycleReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.reports {
		if existing.RunID == report.RunID {
			m.reports[i] = report
			return nil
		}
	}
	m.reports = append(m.reports, report)
	if m.max > 0 && len(m.reports) > m.max {
		m.reports = m.reports[len(m.reports)-m.max:]
	}
	return nil
}

// LatestCycle returns the last saved report
func (m *MemoryRepository) LatestCycle(_ context.Context) (*contracts.CycleReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.reports) == 0 {
		return nil, ErrNoCycles
	}
	return m.reports[len(m.reports)-1], nil
}

// ListCycles returns up to limit reports, newest first
func (m *MemoryRepository) ListCycles(_ context.Context, limit int) ([]*contracts.CycleReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.CycleReport, 0, limit)
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.reports[i])
	}
	return out, nil
}
