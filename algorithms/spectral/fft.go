package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-valued input
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal.
// go-dsp handles non-power-of-2 sizes, so segments need no zero padding.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// PowerOneSided returns |X[k]|^2 for k = 0..n/2 of a real signal of length n
func (f *FFT) PowerOneSided(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	power := make([]float64, bins)
	for k := range bins {
		mag := cmplx.Abs(spectrum[k])
		power[k] = mag * mag
	}

	return power
}
