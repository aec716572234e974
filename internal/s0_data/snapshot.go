package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// SnapshotBuilder fetches everything one cycle reads, once, in security order
// ⭐ SSOT: S0 데이터 스냅샷 생성
type SnapshotBuilder struct {
	market       contracts.MarketData
	fundamentals contracts.Fundamentals
	logger       *logger.Logger
}

// NewSnapshotBuilder creates a builder. fundamentals may be nil when no screen needs them.
func NewSnapshotBuilder(market contracts.MarketData, fundamentals contracts.Fundamentals, log *logger.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		market:       market,
		fundamentals: fundamentals,
		logger:       log.Component("s0_data"),
	}
}

// Build loads window sessions of close and volume for every security, plus the given metrics.
// Collaborator failures abort the build; missing data does not.
func (b *SnapshotBuilder) Build(ctx context.Context, asOf time.Time, window int, metrics []contracts.Metric) (*contracts.MarketSnapshot, error) {
	secs, err := b.market.Securities(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list securities: %w", err)
	}
	contracts.SortSecurities(secs)

	snap := &contracts.MarketSnapshot{
		Date:         asOf,
		Securities:   secs,
		Closes:       make(map[contracts.Security]contracts.Series, len(secs)),
		Volumes:      make(map[contracts.Security]contracts.Series, len(secs)),
		Fundamentals: make(map[contracts.Security]map[contracts.Metric]float64),
	}

	for _, sec := range secs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		closes, err := b.market.History(ctx, sec, contracts.FieldClose, window, contracts.FrequencyDaily, asOf)
		if err != nil {
			return nil, fmt.Errorf("close history %s: %w", sec, err)
		}
		volumes, err := b.market.History(ctx, sec, contracts.FieldVolume, window, contracts.FrequencyDaily, asOf)
		if err != nil {
			return nil, fmt.Errorf("volume history %s: %w", sec, err)
		}
		snap.Closes[sec] = closes
		snap.Volumes[sec] = volumes

		if b.fundamentals == nil {
			continue
		}
		for _, m := range metrics {
			v, known, err := b.fundamentals.Latest(ctx, m, sec, asOf)
			if err != nil {
				return nil, fmt.Errorf("fundamental %s %s: %w", m, sec, err)
			}
			if !known {
				continue
			}
			if snap.Fundamentals[sec] == nil {
				snap.Fundamentals[sec] = make(map[contracts.Metric]float64)
			}
			snap.Fundamentals[sec][m] = v
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"date":       asOf.Format("2006-01-02"),
		"securities": len(secs),
		"window":     window,
		"metrics":    len(metrics),
	}).Info("S0 snapshot built")

	return snap, nil
}
