package s0_data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

type recordingSaver struct {
	bars         []contracts.Bar
	fundamentals int
	earnings     int
	failOn       contracts.Security
}

func (r *recordingSaver) SaveBars(_ context.Context, bars []contracts.Bar) error {
	if len(bars) > 0 && bars[0].Security == r.failOn {
		return errors.New("disk full")
	}
	r.bars = append(r.bars, bars...)
	return nil
}

func (r *recordingSaver) SaveFundamental(context.Context, contracts.Security, contracts.Metric, time.Time, float64) error {
	r.fundamentals++
	return nil
}

func (r *recordingSaver) SaveEarnings(context.Context, contracts.Security, time.Time) error {
	r.earnings++
	return nil
}

func TestImport(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

	store := NewMemoryStore()
	store.AddBars(
		contracts.Bar{Security: "MSFT", Date: d(2), Close: 370, Volume: 10},
		contracts.Bar{Security: "AAPL", Date: d(2), Close: 185, Volume: 20},
		contracts.Bar{Security: "AAPL", Date: d(3), Close: 184, Volume: 30},
	)
	store.SetFundamental("AAPL", contracts.MetricPE, d(1), 29.5)
	store.AddEarnings("AAPL", d(25))

	saver := &recordingSaver{}
	n, err := Import(context.Background(), store, saver, saver)
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	require.Len(t, saver.bars, 3)
	assert.Equal(t, contracts.Security("AAPL"), saver.bars[0].Security, "securities in sorted order")
	assert.Equal(t, 1, saver.fundamentals)
	assert.Equal(t, 1, saver.earnings)
}

func TestImport_StopsOnError(t *testing.T) {
	store := NewMemoryStore()
	store.AddBars(
		contracts.Bar{Security: "AAPL", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185},
		contracts.Bar{Security: "MSFT", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 370},
	)

	saver := &recordingSaver{failOn: "MSFT"}
	n, err := Import(context.Background(), store, saver, saver)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, n)
}
