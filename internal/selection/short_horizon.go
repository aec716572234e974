package selection

import (
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/strategyconfig"
)

// MeanReversion restricts to the dollar-volume band of last-session dollar volume,
// then buys the losers band and sells the winners band of recent returns.
func MeanReversion(date time.Time, dollarVolume, returns map[contracts.Security]float64, bands strategyconfig.MeanReversionBands) contracts.SelectionSet {
	active := PercentileBetween(dollarVolume, bands.DollarVolume.MinPct, bands.DollarVolume.MaxPct)

	masked := make(map[contracts.Security]float64, len(active))
	for _, sec := range active {
		if r, ok := returns[sec]; ok {
			masked[sec] = r
		}
	}

	return Disjoint(date,
		PercentileBetween(masked, bands.Longs.MinPct, bands.Longs.MaxPct),
		PercentileBetween(masked, bands.Shorts.MinPct, bands.Shorts.MaxPct),
	)
}

// Reversal buckets trailing returns; the lowest bucket is bought and the highest sold
func Reversal(date time.Time, returns map[contracts.Security]float64, bins int) contracts.SelectionSet {
	var longs, shorts []contracts.Security
	for sec, bucket := range Quantiles(returns, bins) {
		switch bucket {
		case 0:
			longs = append(longs, sec)
		case bins - 1:
			shorts = append(shorts, sec)
		}
	}
	return Disjoint(date, longs, shorts)
}
