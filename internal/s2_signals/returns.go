package s2_signals

import (
	"github.com/wonny/aegis/momentum/internal/contracts"
)

// TrailingReturn is (p[last] - p[first]) / p[first] over the last window closes,
// counted the same way as AbsoluteMomentum.
// ok=false with fewer than window closes, window < 2, or a non-positive endpoint.
func TrailingReturn(series contracts.Series, window int) (float64, bool) {
	if window < 2 || len(series) < window {
		return 0, false
	}
	tail := series.Tail(window)
	base, last := tail[0].Value, tail[len(tail)-1].Value
	if !(base > 0) || !(last > 0) {
		return 0, false
	}
	return (last - base) / base, true
}
