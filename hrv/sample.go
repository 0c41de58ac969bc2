// Package hrv buffers beat-to-beat intervals and derives heart rate
// variability metrics from them.
package hrv

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Sample is one RR interval reported by the sensor
type Sample struct {
	Timestamp  float64 `json:"timestamp"`   // seconds
	IntervalMs float64 `json:"interval_ms"` // milliseconds
}

// Within reports whether the interval lies in [minMs, maxMs] and is finite
func (s Sample) Within(minMs, maxMs float64) bool {
	if !common.IsFinite(s.IntervalMs) || s.IntervalMs <= 0 {
		return false
	}
	return s.IntervalMs >= minMs && s.IntervalMs <= maxMs
}

// Intervals extracts the RR values in milliseconds
func Intervals(samples []Sample) []float64 {
	rr := make([]float64, len(samples))
	for i, s := range samples {
		rr[i] = s.IntervalMs
	}
	return rr
}

// Timestamps extracts the sample timestamps in seconds
func Timestamps(samples []Sample) []float64 {
	ts := make([]float64, len(samples))
	for i, s := range samples {
		ts[i] = s.Timestamp
	}
	return ts
}

// FromIntervals builds samples whose timestamps are the running sum of the
// intervals, starting at zero.
func FromIntervals(rrMs []float64) []Sample {
	t := common.CumulativeTime(rrMs)
	samples := make([]Sample, len(rrMs))
	for i, rr := range rrMs {
		samples[i] = Sample{Timestamp: t[i], IntervalMs: rr}
	}
	return samples
}

// AxisDriftTolerance is how far, in seconds, a supplied timestamp span may
// stray from the RR sums before TimeAxis distrusts it. Spans within half the
// RR sum are also accepted.
const AxisDriftTolerance = 10.0

// TimeAxis returns the time base used to resample rr. Supplied timestamps are
// used when they align with rr, strictly increase and span roughly the time
// the intervals add up to. Otherwise the axis is rebuilt from cumulative RR
// sums, so a jump in the sensor clock cannot stretch the grid.
func TimeAxis(rrMs, timestamps []float64) []float64 {
	if len(timestamps) == len(rrMs) && len(timestamps) > 1 &&
		common.AllFinite(timestamps) && common.IsStrictlyIncreasing(timestamps) {
		t := common.CumulativeTime(rrMs)
		expected := t[len(t)-1]
		span := timestamps[len(timestamps)-1] - timestamps[0]
		if math.Abs(span-expected) <= math.Max(AxisDriftTolerance, 0.5*expected) {
			copy(t, timestamps)
		}
		return t
	}
	return common.CumulativeTime(rrMs)
}
