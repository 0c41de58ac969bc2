package score

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// MinSyncSamples is the number of RR intervals the synchronisation needs
const MinSyncSamples = 10

// Sync estimates heart-respiration synchronisation as a percentage. It mixes
// closeness of the breathing rate to targetCPM (0.5), stability of the RR
// series (0.3) and the respiration quality (0.2). Stability drops to 0 when
// the RR spread reaches 20% of the mean.
func Sync(rrMs []float64, respCPM float64, respValid bool, quality, targetCPM float64) float64 {
	if len(rrMs) < MinSyncSamples || !respValid || respCPM <= 0 || targetCPM <= 0 {
		return 0.0
	}

	freqMatch := max(0.0, 1.0-math.Abs(respCPM-targetCPM)/targetCPM)

	mean := common.Mean(rrMs)
	stability := 0.0
	if mean > 0 {
		stability = 1.0 - common.Clamp01(common.PopStandardDeviation(rrMs)/(0.2*mean))
	}

	sync := 100.0 * (0.5*freqMatch + 0.3*stability + 0.2*common.Clamp01(quality))
	return common.Clamp(common.SafeFloat(sync, 0), 0, 100)
}
