package hrv

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// TimeDomain holds the time-domain HRV metrics in milliseconds
type TimeDomain struct {
	SDNN   float64 `json:"sdnn"`
	RMSSD  float64 `json:"rmssd"`
	MeanRR float64 `json:"mean_rr"`
	MeanHR float64 `json:"mean_hr"` // beats per minute
}

// AnalyzeTimeDomain computes SDNN (sample standard deviation, n-1) and RMSSD.
// Fewer than two intervals yield zeros.
func AnalyzeTimeDomain(rrMs []float64) TimeDomain {
	var td TimeDomain
	if len(rrMs) > 0 {
		td.MeanRR = common.Mean(rrMs)
		if td.MeanRR > 0 {
			td.MeanHR = 60000.0 / td.MeanRR
		}
	}
	if len(rrMs) < 2 {
		return TimeDomain{MeanRR: td.MeanRR, MeanHR: td.MeanHR}
	}

	td.SDNN = common.StandardDeviation(rrMs)

	diff := common.Diff(rrMs)
	sumSq := 0.0
	for _, d := range diff {
		sumSq += d * d
	}
	td.RMSSD = math.Sqrt(sumSq / float64(len(diff)))

	td.SDNN = common.SafeFloat(td.SDNN, 0)
	td.RMSSD = common.SafeFloat(td.RMSSD, 0)
	return td
}
