// Package score turns HRV and respiration metrics into the composite
// coherence score.
package score

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Reference points of the normalisers
const (
	RMSSDCeilingMs   = 80.0
	SDNNCeilingMs    = 100.0
	ResonanceHz      = 0.10 // about 6 breaths per minute
	ResonanceWidthHz = 0.05
	minRatio         = 1e-8
)

// NormRatio peaks at 1 when LF and HF balance and falls to 0 as the ratio
// moves a decade away. Zero when either band is empty.
func NormRatio(lf, hf, ratio float64) float64 {
	if lf <= common.Epsilon || hf <= common.Epsilon || !common.IsFinite(ratio) {
		return 0.0
	}
	return common.Clamp01(1.0 - math.Abs(math.Log10(max(ratio, minRatio))))
}

// NormRMSSD scales RMSSD against an 80 ms ceiling
func NormRMSSD(rmssd float64) float64 {
	return common.Clamp01(common.SafeFloat(rmssd, 0) / RMSSDCeilingMs)
}

// NormSDNN scales SDNN against a 100 ms ceiling
func NormSDNN(sdnn float64) float64 {
	return common.Clamp01(common.SafeFloat(sdnn, 0) / SDNNCeilingMs)
}

// NormHFFraction returns hf/(lf+hf), zero when both are empty
func NormHFFraction(lf, hf float64) float64 {
	total := lf + hf
	if total <= 0 || !common.IsFinite(total) {
		return 0.0
	}
	return common.Clamp01(hf / total)
}

// NormRespiration peaks when breathing sits at the 0.10 Hz resonance and
// reaches 0 at 0.05 Hz away. An absent rate scores 0.
func NormRespiration(hz float64, valid bool) float64 {
	if !valid || !common.IsFinite(hz) {
		return 0.0
	}
	return common.Clamp01(1.0 - math.Abs(hz-ResonanceHz)/ResonanceWidthHz)
}
