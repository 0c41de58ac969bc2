package filters

import (
	"fmt"
	"math"
)

// ButterworthQ is the quality factor giving a maximally flat second-order section
const ButterworthQ = 1.0 / math.Sqrt2

// BiquadType selects the response of a second-order section
type BiquadType int

const (
	// Lowpass passes frequencies below the cutoff
	Lowpass BiquadType = iota
	// Highpass passes frequencies above the cutoff
	Highpass
)

func (t BiquadType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	default:
		return "unknown"
	}
}

// Biquad implements a second-order IIR section using the cookbook formulas from
// Robert Bristow-Johnson's "Cookbook formulae for audio EQ biquad filter coefficients".
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
//
// With Q = 1/sqrt(2) the section is a second-order Butterworth filter.
type Biquad struct {
	kind       BiquadType
	sampleRate float64
	cutoff     float64 // -3dB frequency in Hz
	qFactor    float64

	// Coefficients normalized by a0
	b0, b1, b2 float64
	a1, a2     float64

	// Direct form II delay line
	w1, w2 float64
}

// NewButterworth creates a second-order Butterworth section.
//
// Parameters:
//   - kind: Lowpass or Highpass
//   - sampleRate: Sample rate in Hz
//   - cutoff: -3dB frequency in Hz, must lie strictly between 0 and Nyquist
func NewButterworth(kind BiquadType, sampleRate, cutoff float64) (*Biquad, error) {
	return NewBiquad(kind, sampleRate, cutoff, ButterworthQ)
}

// NewBiquad creates a second-order section with an explicit Q factor
func NewBiquad(kind BiquadType, sampleRate, cutoff, qFactor float64) (*Biquad, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}
	if cutoff <= 0 || cutoff >= sampleRate/2 {
		return nil, fmt.Errorf("cutoff %v Hz must be between 0 and Nyquist (%v Hz)", cutoff, sampleRate/2)
	}
	if qFactor <= 0 {
		return nil, fmt.Errorf("q factor must be positive, got %v", qFactor)
	}

	bq := &Biquad{
		kind:       kind,
		sampleRate: sampleRate,
		cutoff:     cutoff,
		qFactor:    qFactor,
	}
	bq.computeCoefficients()
	return bq, nil
}

// computeCoefficients calculates the biquad coefficients using the cookbook formula.
func (bq *Biquad) computeCoefficients() {
	// Normalize frequency: w0 = 2*pi*f0/Fs
	w0 := 2.0 * math.Pi * bq.cutoff / bq.sampleRate

	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	// Alpha parameter: alpha = sin(w0)/(2*Q)
	alpha := sinW0 / (2.0 * bq.qFactor)

	var b0, b1, b2 float64
	switch bq.kind {
	case Highpass:
		b0 = (1.0 + cosW0) / 2.0
		b1 = -(1.0 + cosW0)
		b2 = (1.0 + cosW0) / 2.0
	default:
		b0 = (1.0 - cosW0) / 2.0
		b1 = 1.0 - cosW0
		b2 = (1.0 - cosW0) / 2.0
	}
	a0 := 1.0 + alpha
	a1 := -2.0 * cosW0
	a2 := 1.0 - alpha

	bq.b0 = b0 / a0
	bq.b1 = b1 / a0
	bq.b2 = b2 / a0
	bq.a1 = a1 / a0
	bq.a2 = a2 / a0
}

// Process applies the section to a single sample.
//
// The difference equation is:
// y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
func (bq *Biquad) Process(input float64) float64 {
	// w[n] = x[n] - a1*w[n-1] - a2*w[n-2]
	w := input - bq.a1*bq.w1 - bq.a2*bq.w2

	// y[n] = b0*w[n] + b1*w[n-1] + b2*w[n-2]
	output := bq.b0*w + bq.b1*bq.w1 + bq.b2*bq.w2

	bq.w2 = bq.w1
	bq.w1 = w

	return output
}

// ProcessBuffer applies the section to an entire buffer of samples.
func (bq *Biquad) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = bq.Process(sample)
	}
	return output
}

// Reset clears the delay line.
func (bq *Biquad) Reset() {
	bq.w1, bq.w2 = 0.0, 0.0
}

// ResetSteadyState primes the delay line as if the constant value x0 had been
// applied forever, removing the start-up transient. It returns the steady-state
// output.
func (bq *Biquad) ResetSteadyState(x0 float64) float64 {
	den := 1.0 + bq.a1 + bq.a2
	if math.Abs(den) < 1e-15 {
		bq.Reset()
		return 0.0
	}

	w := x0 / den
	bq.w1, bq.w2 = w, w
	return (bq.b0 + bq.b1 + bq.b2) * w
}

// GetFrequencyResponse computes the magnitude and phase response at given frequency.
//
// H(e^jw) = (b0 + b1*e^-jw + b2*e^-j2w) / (1 + a1*e^-jw + a2*e^-j2w)
func (bq *Biquad) GetFrequencyResponse(frequency float64) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / bq.sampleRate

	cosW := math.Cos(w)
	sinW := math.Sin(w)
	cos2W := math.Cos(2 * w)
	sin2W := math.Sin(2 * w)

	numReal := bq.b0 + bq.b1*cosW + bq.b2*cos2W
	numImag := -bq.b1*sinW - bq.b2*sin2W

	denReal := 1.0 + bq.a1*cosW + bq.a2*cos2W
	denImag := -bq.a1*sinW - bq.a2*sin2W

	denMagSq := denReal*denReal + denImag*denImag

	hReal := (numReal*denReal + numImag*denImag) / denMagSq
	hImag := (numImag*denReal - numReal*denImag) / denMagSq

	magnitude = math.Sqrt(hReal*hReal + hImag*hImag)
	phase = math.Atan2(hImag, hReal)

	return magnitude, phase
}

// GetCoefficients returns the normalized biquad coefficients (a0 = 1).
func (bq *Biquad) GetCoefficients() (b0, b1, b2, a1, a2 float64) {
	return bq.b0, bq.b1, bq.b2, bq.a1, bq.a2
}
