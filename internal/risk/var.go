package risk

import (
	"math"
	"sort"
)

// VaRResult is a loss estimate at one confidence level
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현 (VaR=0.05 → 5% 손실 가능)
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"` // expected shortfall beyond VaR
}

// HistoricalVaR reads VaR off the empirical return distribution.
// returns are daily simple returns; a tail with no losses gives zero.
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	var sum float64
	for _, r := range sorted[:idx+1] {
		sum += r
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        asLoss(sorted[idx]),
		CVaR:       asLoss(sum / float64(idx+1)),
	}
}

// ParametricVaR assumes normally distributed returns
func ParametricVaR(mean, stdDev, confidence float64) VaRResult {
	if stdDev <= 0 || confidence <= 0 || confidence >= 1 {
		return VaRResult{Confidence: confidence, VaR: asLoss(mean), CVaR: asLoss(mean)}
	}

	z := NormInv(confidence)
	// CVaR = -mean + stdDev * φ(z) / (1-confidence)
	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(z*stdDev-mean, 0),
		CVaR:       math.Max(stdDev*NormPDF(z)/(1-confidence)-mean, 0),
	}
}

func asLoss(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}

// NormInv is the standard normal quantile (Acklam's rational approximation)
func NormInv(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}

	a := [...]float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	b := [...]float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	c := [...]float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	d := [...]float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}

	const pLow = 0.02425

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= 1-pLow:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

// NormPDF is the standard normal density
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
