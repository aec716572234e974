package contracts

import (
	"context"
	"time"
)

// MarketData serves trailing histories and current values as of a session date
// ⭐ SSOT: S0 시세 조회 인터페이스
type MarketData interface {
	// Securities lists every security known on asOf, sorted
	Securities(ctx context.Context, asOf time.Time) ([]Security, error)
	// History returns up to window sessions ending at asOf (inclusive).
	// A short or empty series means the data does not exist; it is not an error.
	History(ctx context.Context, sec Security, field Field, window int, freq Frequency, asOf time.Time) (Series, error)
	// Current returns the latest value of field on or before asOf
	Current(ctx context.Context, sec Security, field Field, asOf time.Time) (float64, error)
}

// Fundamentals serves the latest known fundamentals value.
// known=false means the value is unavailable (NaN upstream).
// ⭐ SSOT: S0 재무/실적 일정 조회 인터페이스
type Fundamentals interface {
	Latest(ctx context.Context, metric Metric, sec Security, asOf time.Time) (value float64, known bool, err error)
}

// Broker is the order-routing collaborator
// ⭐ SSOT: S6 브로커 인터페이스
type Broker interface {
	OpenOrders(ctx context.Context) (map[Security][]Order, error)
	Cancel(ctx context.Context, order Order) error
	// OrderTargetPercent orders whatever quantity moves sec to weight of portfolio value.
	// A nil order with nil error means no quantity change was needed.
	OrderTargetPercent(ctx context.Context, sec Security, weight float64) (*Order, error)
	CanTrade(ctx context.Context, sec Security) (bool, error)
	Positions(ctx context.Context) (map[Security]Position, error)
}

// CycleRepository persists cycle reports
// ⭐ SSOT: 선정 결과 저장 인터페이스
type CycleRepository interface {
	SaveCycle(ctx context.Context, report *CycleReport) error
	LatestCycle(ctx context.Context) (*CycleReport, error)
	ListCycles(ctx context.Context, limit int) ([]*CycleReport, error)
}
