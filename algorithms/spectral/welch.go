package spectral

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/algorithms/windowing"
)

// ErrSegmentTooShort is returned when the usable segment length is below the minimum.
var ErrSegmentTooShort = errors.New("segment too short for spectral estimate")

// PSD is a one-sided power spectral density estimate
type PSD struct {
	Freq     []float64 // Hz, uniformly spaced from 0 to fs/2
	Power    []float64 // units^2/Hz
	Segments int
	Length   int // samples per segment
}

// Welch estimates power spectral density by averaging periodograms of
// 50%-overlapping Hann-windowed segments.
type Welch struct {
	sampleRate float64
	maxSegment int
	minSegment int
	fft        *FFT
}

// NewWelch creates a Welch estimator. Segments use min(maxSegment, len(signal))
// samples rounded down to even and must be at least minSegment long.
func NewWelch(sampleRate float64, maxSegment, minSegment int) *Welch {
	return &Welch{
		sampleRate: sampleRate,
		maxSegment: maxSegment,
		minSegment: minSegment,
		fft:        NewFFT(),
	}
}

// SegmentLength returns the segment size used for a signal of n samples
func (w *Welch) SegmentLength(n int) int {
	nperseg := min(w.maxSegment, n)
	return nperseg - nperseg%2
}

// Compute estimates the density of signal. Each segment is copied, has its
// mean removed and is windowed before the FFT. Density scaling doubles every
// bin except DC and Nyquist, then divides by fs * sum(w^2) * segments.
func (w *Welch) Compute(signal []float64) (*PSD, error) {
	if w.sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", w.sampleRate)
	}

	nperseg := w.SegmentLength(len(signal))
	if nperseg < w.minSegment || nperseg < 2 {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrSegmentTooShort, nperseg, w.minSegment)
	}

	window := windowing.NewPeriodicHann(nperseg)
	step := nperseg / 2
	segments := (len(signal)-nperseg)/step + 1

	bins := nperseg/2 + 1
	power := make([]float64, bins)
	segment := make([]float64, nperseg)

	for s := range segments {
		start := s * step
		copy(segment, signal[start:start+nperseg])

		mean := common.Mean(segment)
		for i := range segment {
			segment[i] -= mean
		}
		if err := window.Taper(segment); err != nil {
			return nil, err
		}

		periodogram := w.fft.PowerOneSided(segment)
		for k := range power {
			power[k] += periodogram[k]
		}
	}

	scale := 1.0 / (w.sampleRate * window.Power() * float64(segments))
	for k := range power {
		power[k] *= scale
		// Nyquist bin exists only for even lengths, which nperseg always is
		if k != 0 && k != bins-1 {
			power[k] *= 2
		}
	}

	freq := make([]float64, bins)
	for k := range freq {
		freq[k] = float64(k) * w.sampleRate / float64(nperseg)
	}

	return &PSD{
		Freq:     freq,
		Power:    power,
		Segments: segments,
		Length:   nperseg,
	}, nil
}
