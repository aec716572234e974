package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestUniverse_Contains(t *testing.T) {
	u := &Universe{
		Securities: []Security{"AAPL", "MSFT", "NVDA"},
		Excluded:   map[Security]string{"XYZ": ReasonPennyStock},
	}

	assert.True(t, u.Contains("MSFT"))
	assert.False(t, u.Contains("XYZ"))
	assert.False(t, u.Contains("ZZZ"))
	assert.Equal(t, 3, u.Count())

	excluded, reason := u.IsExcluded("XYZ")
	assert.True(t, excluded)
	assert.Equal(t, ReasonPennyStock, reason)
}

func TestSeries_TailAndLast(t *testing.T) {
	s := Series{{day(1), 10}, {day(2), 11}, {day(3), 12}}

	assert.Equal(t, []float64{11, 12}, s.Tail(2).Values())
	assert.Len(t, s.Tail(10), 3)

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 12.0, last.Value)

	_, ok = Series{}.Last()
	assert.False(t, ok)
}

func TestTargetPortfolio_SideWeight(t *testing.T) {
	tp := &TargetPortfolio{
		Positions: []TargetPosition{
			{Security: "A", Weight: 0.25, Side: SideLong},
			{Security: "B", Weight: 0.25, Side: SideLong},
			{Security: "C", Weight: -0.5, Side: SideShort},
			{Security: "D", Weight: 0, Side: SideLiquidate},
		},
	}

	assert.InDelta(t, 0.5, tp.SideWeight(SideLong), 1e-12)
	assert.InDelta(t, -0.5, tp.SideWeight(SideShort), 1e-12)
	assert.Equal(t, 4, tp.Count())

	pos, ok := tp.Get("D")
	assert.True(t, ok)
	assert.Equal(t, SideLiquidate, pos.Side)
}

func TestSelectionSet_Side(t *testing.T) {
	s := &SelectionSet{Longs: []Security{"D"}, Shorts: []Security{"A"}}

	assert.Equal(t, SideLong, s.Side("D"))
	assert.Equal(t, SideShort, s.Side("A"))
	assert.Equal(t, PositionSide(""), s.Side("B"))
	assert.False(t, s.IsEmpty())
	assert.True(t, (&SelectionSet{}).IsEmpty())
}

func TestOrder_SignedQuantity(t *testing.T) {
	buy := Order{Side: OrderSideBuy, Quantity: 10, Status: StatusOpen}
	sell := Order{Side: OrderSideSell, Quantity: 4}

	assert.Equal(t, 10.0, buy.SignedQuantity())
	assert.Equal(t, -4.0, sell.SignedQuantity())
	assert.True(t, buy.IsOpen())
	assert.False(t, sell.IsOpen())
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, ModeMomentum.Valid())
	assert.True(t, ModeReversal.Valid())
	assert.False(t, Mode("pairs").Valid())
}

func TestStage_ShortName(t *testing.T) {
	assert.Equal(t, "S1", StageUniverse.ShortName())
	assert.Equal(t, "UNKNOWN", Stage("x").ShortName())
}
