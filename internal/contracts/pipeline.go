package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S4 → S5 → S6
//   Data  Universe  Signals  Ranker  Allocator  Dispatch

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: trailing price/volume histories and fundamentals
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageUniverse S1: liquidity, price floor, earnings guard, fundamentals screen
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageSignals S2: cross-sectional and absolute momentum, short-horizon returns
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageRanker S4: average ranks, combined rank, percentile bands
	// 위치: internal/selection/
	StageRanker Stage = "S4_RANKER"

	// StagePortfolio S5: equal-weight long/short targets and liquidations
	// 위치: internal/portfolio/
	StagePortfolio Stage = "S5_PORTFOLIO"

	// StageExecution S6: target-percent orders and open-order cancellation
	// 위치: internal/execution/
	StageExecution Stage = "S6_EXECUTION"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageSignals:
		return "S2"
	case StageRanker:
		return "S4"
	case StagePortfolio:
		return "S5"
	case StageExecution:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// Mode selects which selection routine a cycle runs
type Mode string

const (
	// ModeMomentum ranks cross-sectional + absolute momentum and trades the extreme bands
	ModeMomentum Mode = "momentum"
	// ModeMeanReversion trades short-horizon losers long and winners short among liquid names
	ModeMeanReversion Mode = "mean_reversion"
	// ModeReversal buckets short-horizon returns into quantiles and holds them in a rolling buffer
	ModeReversal Mode = "reversal"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeMomentum, ModeMeanReversion, ModeReversal:
		return true
	}
	return false
}
