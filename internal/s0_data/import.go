package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

// BarSaver persists daily bars
type BarSaver interface {
	SaveBars(ctx context.Context, bars []contracts.Bar) error
}

// FundamentalSaver persists fundamentals and earnings dates
type FundamentalSaver interface {
	SaveFundamental(ctx context.Context, sec contracts.Security, metric contracts.Metric, asOf time.Time, value float64) error
	SaveEarnings(ctx context.Context, sec contracts.Security, date time.Time) error
}

// Import copies everything in store into the savers, security by security.
// Returns the number of bars written.
func Import(ctx context.Context, store *MemoryStore, bars BarSaver, fundamentals FundamentalSaver) (int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	secs := make([]contracts.Security, 0, len(store.bars))
	for sec := range store.bars {
		secs = append(secs, sec)
	}
	contracts.SortSecurities(secs)

	written := 0
	for _, sec := range secs {
		if err := bars.SaveBars(ctx, store.bars[sec]); err != nil {
			return written, fmt.Errorf("save bars %s: %w", sec, err)
		}
		written += len(store.bars[sec])
	}

	for sec, metrics := range store.fundamentals {
		for metric, points := range metrics {
			for _, p := range points {
				if err := fundamentals.SaveFundamental(ctx, sec, metric, p.Date, p.Value); err != nil {
					return written, err
				}
			}
		}
	}

	for sec, dates := range store.earnings {
		for _, d := range dates {
			if err := fundamentals.SaveEarnings(ctx, sec, d); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}
