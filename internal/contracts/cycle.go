package contracts

import "time"

// CycleReport summarises one scheduled cycle. It is persisted, served by the API
// and pushed to websocket subscribers.
type CycleReport struct {
	RunID      string    `json:"run_id"`
	Date       time.Time `json:"date"`
	Mode       Mode      `json:"mode"`
	ConfigHash string    `json:"config_hash"`

	// Rebalanced is false when the date rule skipped this session
	Rebalanced bool `json:"rebalanced"`

	Evaluated int `json:"evaluated"` // securities in the snapshot
	Eligible  int `json:"eligible"`  // passed every screen and have signals

	Selection SelectionSet     `json:"selection"`
	Targets   []TargetPosition `json:"targets"`

	Emitted     []Security `json:"emitted"`
	Deferred    []Security `json:"deferred"`    // open order in flight
	Untradeable []Security `json:"untradeable"` // broker refused can_trade

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
