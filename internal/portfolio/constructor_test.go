package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

var today = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newConstructor() *Constructor {
	return NewConstructor(strategyconfig.Default().Allocation, logger.Nop())
}

func TestAllocate_EqualWeights(t *testing.T) {
	selection := contracts.SelectionSet{
		Date:   today,
		Longs:  []contracts.Security{"X", "Y"},
		Shorts: []contracts.Security{"A", "B", "C", "D"},
	}

	target := newConstructor().Allocate(selection, nil)

	require.Equal(t, 6, target.Count())
	x, ok := target.Get("X")
	require.True(t, ok)
	assert.Equal(t, contracts.TargetPosition{Security: "X", Weight: 0.25, Side: contracts.SideLong}, x)

	assert.InDelta(t, 0.5, target.SideWeight(contracts.SideLong), 1e-12)
	assert.InDelta(t, -0.5, target.SideWeight(contracts.SideShort), 1e-12)

	// longs first, then shorts
	assert.Equal(t, contracts.Security("X"), target.Positions[0].Security)
	assert.Equal(t, contracts.Security("A"), target.Positions[2].Security)
}

func TestAllocate_EmptySides(t *testing.T) {
	tests := []struct {
		name      string
		selection contracts.SelectionSet
		wantLong  int
		wantShort int
	}{
		{"no longs", contracts.SelectionSet{Shorts: []contracts.Security{"A"}}, 0, 1},
		{"no shorts", contracts.SelectionSet{Longs: []contracts.Security{"A", "B"}}, 2, 0},
		{"nothing", contracts.SelectionSet{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := newConstructor().Allocate(tt.selection, nil)

			longs, shorts := 0, 0
			for _, p := range target.Positions {
				switch p.Side {
				case contracts.SideLong:
					longs++
				case contracts.SideShort:
					shorts++
				}
			}
			assert.Equal(t, tt.wantLong, longs)
			assert.Equal(t, tt.wantShort, shorts)
		})
	}
}

func TestAllocate_LiquidatesStaleHoldings(t *testing.T) {
	selection := contracts.SelectionSet{Longs: []contracts.Security{"KEEP"}}
	holdings := map[contracts.Security]contracts.Position{
		"KEEP":  {Security: "KEEP", Quantity: 10},
		"STALE": {Security: "STALE", Quantity: -5},
		"FLAT":  {Security: "FLAT", Quantity: 0},
		"OLD":   {Security: "OLD", Quantity: 3},
	}

	target := newConstructor().Allocate(selection, holdings)

	require.Equal(t, 3, target.Count())
	assert.Equal(t, contracts.TargetPosition{Security: "OLD", Weight: 0, Side: contracts.SideLiquidate}, target.Positions[1])
	assert.Equal(t, contracts.TargetPosition{Security: "STALE", Weight: 0, Side: contracts.SideLiquidate}, target.Positions[2])
	_, ok := target.Get("FLAT")
	assert.False(t, ok)
}

func TestAllocateCapped(t *testing.T) {
	cfg := strategyconfig.Default().Allocation
	cfg.MaxInOne = 0.1
	c := NewConstructor(cfg, logger.Nop())

	target := c.AllocateCapped(contracts.SelectionSet{
		Longs:  []contracts.Security{"A", "B"},
		Shorts: []contracts.Security{"C", "D", "E", "F", "G", "H", "I", "J", "K", "L"},
	}, nil)

	a, _ := target.Get("A")
	assert.InDelta(t, 0.1, a.Weight, 1e-12, "capped at max_in_one")
	c1, _ := target.Get("C")
	assert.InDelta(t, -0.05, c1.Weight, 1e-12)
}
