package contracts

import "time"

// PositionSide tags a target with why it exists
type PositionSide string

const (
	SideLong      PositionSide = "long"
	SideShort     PositionSide = "short"
	SideLiquidate PositionSide = "liquidate"
)

// Position is a broker-held position
type Position struct {
	Security    Security `json:"security"`
	Quantity    float64  `json:"quantity"` // negative when short
	AvgPrice    float64  `json:"avg_price"`
	MarketValue float64  `json:"market_value"`
}

// TargetPortfolio represents the target weights passed from S5 to S6.
// Positions are ordered longs, then shorts, then liquidations, each sorted by security.
// ⭐ SSOT: S5 → S6 목표 포트폴리오 전달
type TargetPortfolio struct {
	Date      time.Time        `json:"date"`
	Positions []TargetPosition `json:"positions"`
}

// TargetPosition is one order_target_percent instruction
// ⭐ 계약: Portfolio(S5)는 Weight만 산출, 수량은 Broker가 계산
type TargetPosition struct {
	Security Security     `json:"security"`
	Weight   float64      `json:"weight"` // signed fraction of portfolio value
	Side     PositionSide `json:"side"`
}

// SideWeight sums the weights of one side
func (tp *TargetPortfolio) SideWeight(side PositionSide) float64 {
	total := 0.0
	for _, pos := range tp.Positions {
		if pos.Side == side {
			total += pos.Weight
		}
	}
	return total
}

// Count returns the number of instructions
func (tp *TargetPortfolio) Count() int {
	return len(tp.Positions)
}

// Get finds the instruction for sec
func (tp *TargetPortfolio) Get(sec Security) (TargetPosition, bool) {
	for _, pos := range tp.Positions {
		if pos.Security == sec {
			return pos, true
		}
	}
	return TargetPosition{}, false
}
