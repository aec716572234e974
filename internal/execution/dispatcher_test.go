package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

type call struct {
	sec    contracts.Security
	weight float64
}

// recordingBroker records order_target_percent calls
type recordingBroker struct {
	open      map[contracts.Security][]contracts.Order
	untraded  map[contracts.Security]bool
	calls     []call
	canceled  []string
	failOn    contracts.Security
	unchanged map[contracts.Security]bool
}

func (b *recordingBroker) OpenOrders(context.Context) (map[contracts.Security][]contracts.Order, error) {
	return b.open, nil
}

func (b *recordingBroker) Cancel(_ context.Context, o contracts.Order) error {
	b.canceled = append(b.canceled, o.ID)
	return nil
}

func (b *recordingBroker) CanTrade(_ context.Context, sec contracts.Security) (bool, error) {
	return !b.untraded[sec], nil
}

func (b *recordingBroker) Positions(context.Context) (map[contracts.Security]contracts.Position, error) {
	return nil, nil
}

func (b *recordingBroker) OrderTargetPercent(_ context.Context, sec contracts.Security, w float64) (*contracts.Order, error) {
	if sec == b.failOn {
		return nil, errors.New("rejected")
	}
	b.calls = append(b.calls, call{sec, w})
	if b.unchanged[sec] {
		return nil, nil
	}
	return &contracts.Order{ID: "o-" + string(sec), Security: sec, Status: contracts.StatusOpen}, nil
}

func target(positions ...contracts.TargetPosition) *contracts.TargetPortfolio {
	return &contracts.TargetPortfolio{Positions: positions}
}

func TestDispatch_EmitsInOrder(t *testing.T) {
	b := &recordingBroker{}
	d := NewDispatcher(b, 1000, logger.Nop())

	report, err := d.Dispatch(context.Background(), target(
		contracts.TargetPosition{Security: "X", Weight: 0.25, Side: contracts.SideLong},
		contracts.TargetPosition{Security: "Y", Weight: 0.25, Side: contracts.SideLong},
	))
	require.NoError(t, err)

	assert.Equal(t, []call{{"X", 0.25}, {"Y", 0.25}}, b.calls)
	assert.Equal(t, []contracts.Security{"X", "Y"}, report.Emitted)
	assert.Len(t, report.Orders, 2)
}

func TestDispatch_DefersAndSkips(t *testing.T) {
	b := &recordingBroker{
		open:      map[contracts.Security][]contracts.Order{"BUSY": {{ID: "1", Security: "BUSY"}}},
		untraded:  map[contracts.Security]bool{"HALT": true},
		unchanged: map[contracts.Security]bool{"SAME": true},
	}
	d := NewDispatcher(b, 1000, logger.Nop())

	report, err := d.Dispatch(context.Background(), target(
		contracts.TargetPosition{Security: "BUSY", Weight: 0.1, Side: contracts.SideLong},
		contracts.TargetPosition{Security: "HALT", Weight: 0.1, Side: contracts.SideLong},
		contracts.TargetPosition{Security: "SAME", Weight: -0.1, Side: contracts.SideShort},
		contracts.TargetPosition{Security: "OLD", Weight: 0, Side: contracts.SideLiquidate},
	))
	require.NoError(t, err)

	assert.Equal(t, []contracts.Security{"BUSY"}, report.Deferred)
	assert.Equal(t, []contracts.Security{"HALT"}, report.Untradeable)
	assert.Equal(t, []contracts.Security{"SAME"}, report.Unchanged)
	assert.Equal(t, []contracts.Security{"OLD"}, report.Emitted)
	assert.Equal(t, []call{{"SAME", -0.1}, {"OLD", 0}}, b.calls)
}

func TestDispatch_BrokerErrorStops(t *testing.T) {
	b := &recordingBroker{failOn: "B"}
	d := NewDispatcher(b, 1000, logger.Nop())

	report, err := d.Dispatch(context.Background(), target(
		contracts.TargetPosition{Security: "A", Weight: 0.1},
		contracts.TargetPosition{Security: "B", Weight: 0.1},
		contracts.TargetPosition{Security: "C", Weight: 0.1},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_target_percent B")
	assert.Equal(t, []contracts.Security{"A"}, report.Emitted)
}

func TestDispatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(&recordingBroker{}, 1000, logger.Nop())
	_, err := d.Dispatch(ctx, target(contracts.TargetPosition{Security: "A", Weight: 0.1}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelOpenOrders(t *testing.T) {
	b := &recordingBroker{open: map[contracts.Security][]contracts.Order{
		"B": {{ID: "b1"}, {ID: "b2"}},
		"A": {{ID: "a1"}},
	}}
	d := NewDispatcher(b, 1000, logger.Nop())

	n, err := d.CancelOpenOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a1", "b1", "b2"}, b.canceled)
}
