package edr

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// DisplayWaveform normalises signal with common.CenteredUnit and keeps the
// points within the last seconds of grid, with time relative to the newest
// point
func DisplayWaveform(grid, signal []float64, seconds float64) *Waveform {
	if len(grid) == 0 || len(grid) != len(signal) {
		return nil
	}

	norm := common.CenteredUnit(signal)
	last := grid[len(grid)-1]

	w := &Waveform{}
	for i, t := range grid {
		rel := t - last
		if rel >= -seconds {
			w.Time = append(w.Time, rel)
			w.Amplitude = append(w.Amplitude, norm[i])
		}
	}
	return w
}

// Sinus synthesises a [0, 1] sine at rateCPM over the last seconds, sampled at
// points evenly spaced instants from -seconds to 0
func Sinus(rateCPM, seconds float64, points int) *Waveform {
	if points < 2 || rateCPM <= 0 || !common.IsFinite(rateCPM) {
		return nil
	}

	f := rateCPM / 60.0
	w := &Waveform{
		Time:      make([]float64, points),
		Amplitude: make([]float64, points),
	}
	step := seconds / float64(points-1)
	for i := range points {
		t := -seconds + float64(i)*step
		w.Time[i] = t
		w.Amplitude[i] = 0.5 + 0.5*math.Sin(2*math.Pi*f*t)
	}
	w.Time[points-1] = 0
	return w
}
