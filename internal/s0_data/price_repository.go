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

// PriceRepository serves daily bars from Postgres and implements contracts.MarketData
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Securities lists tradable securities that were listed on asOf
func (r *PriceRepository) Securities(ctx context.Context, asOf time.Time) ([]contracts.Security, error) {
	query := `
		SELECT symbol
		FROM data.securities
		WHERE (listed_on IS NULL OR listed_on <= $1)
		  AND (delisted_on IS NULL OR delisted_on > $1)
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("query securities: %w", err)
	}
	defer rows.Close()

	var secs []contracts.Security
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		secs = append(secs, contracts.Security(sym))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return secs, nil
}

// History returns up to window bars ending at asOf, ascending
func (r *PriceRepository) History(ctx context.Context, sec contracts.Security, field contracts.Field, window int, freq contracts.Frequency, asOf time.Time) (contracts.Series, error) {
	if freq != contracts.FrequencyDaily {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedFrequency, freq)
	}

	column, err := priceColumn(field)
	if err != nil {
		return nil, err
	}

	// column comes from a fixed whitelist
	query := fmt.Sprintf(`
		SELECT trade_date, %s
		FROM data.daily_prices
		WHERE symbol = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT $3
	`, column)

	rows, err := r.pool.Query(ctx, query, string(sec), asOf, window)
	if err != nil {
		return nil, fmt.Errorf("query history %s: %w", sec, err)
	}
	defer rows.Close()

	var desc contracts.Series
	for rows.Next() {
		var p contracts.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan history %s: %w", sec, err)
		}
		desc = append(desc, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	series := make(contracts.Series, len(desc))
	for i, p := range desc {
		series[len(desc)-1-i] = p
	}
	return series, nil
}

// Current returns the latest value on or before asOf
func (r *PriceRepository) Current(ctx context.Context, sec contracts.Security, field contracts.Field, asOf time.Time) (float64, error) {
	column, err := priceColumn(field)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM data.daily_prices
		WHERE symbol = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT 1
	`, column)

	var v float64
	err = r.pool.QueryRow(ctx, query, string(sec), asOf).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", contracts.ErrUnknownSecurity, sec)
	}
	if err != nil {
		return 0, fmt.Errorf("query current %s: %w", sec, err)
	}
	return v, nil
}

// Sessions returns every trade date in [from, to], ascending
func (r *PriceRepository) Sessions(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT trade_date
		FROM data.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sessions, nil
}

// SaveBars upserts bars in batches of 500 per transaction
func (r *PriceRepository) SaveBars(ctx context.Context, bars []contracts.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (symbol, trade_date, close, volume)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`
	securityQuery := `
		INSERT INTO data.securities (symbol) VALUES ($1)
		ON CONFLICT (symbol) DO NOTHING
	`

	const batchSize = 500
	for i := 0; i < len(bars); i += batchSize {
		end := i + batchSize
		if end > len(bars) {
			end = len(bars)
		}

		batch := &pgx.Batch{}
		seen := make(map[contracts.Security]bool)
		for _, b := range bars[i:end] {
			if !seen[b.Security] {
				batch.Queue(securityQuery, string(b.Security))
				seen[b.Security] = true
			}
			batch.Queue(query, string(b.Security), b.Date, b.Close, b.Volume)
		}

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction (batch %d): %w", i/batchSize, err)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("upsert bars (batch %d): %w", i/batchSize, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction (batch %d): %w", i/batchSize, err)
		}
	}
	return nil
}

func priceColumn(field contracts.Field) (string, error) {
	switch field {
	case contracts.FieldClose, contracts.FieldPrice:
		return "close", nil
	case contracts.FieldVolume:
		return "volume", nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}
