package filters

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSignalTooShort is returned when a signal does not exceed the edge padding.
	ErrSignalTooShort = errors.New("signal too short for zero-phase filtering")
	// ErrUnstable is returned when filtering produces non-finite output.
	ErrUnstable = errors.New("filter output is not finite")
)

// Cascade chains second-order sections in series.
type Cascade struct {
	sections []*Biquad
}

// NewCascade creates a cascade from the given sections, applied in order
func NewCascade(sections ...*Biquad) *Cascade {
	return &Cascade{sections: sections}
}

// NewBandpass builds a Butterworth band-pass as a high-pass section at low
// followed by a low-pass section at high.
func NewBandpass(sampleRate, low, high float64) (*Cascade, error) {
	if low >= high {
		return nil, fmt.Errorf("band edges must satisfy low < high, got [%v, %v]", low, high)
	}

	hp, err := NewButterworth(Highpass, sampleRate, low)
	if err != nil {
		return nil, fmt.Errorf("high-pass edge: %w", err)
	}
	lp, err := NewButterworth(Lowpass, sampleRate, high)
	if err != nil {
		return nil, fmt.Errorf("low-pass edge: %w", err)
	}

	return NewCascade(hp, lp), nil
}

// Process runs one sample through every section
func (c *Cascade) Process(input float64) float64 {
	out := input
	for _, s := range c.sections {
		out = s.Process(out)
	}
	return out
}

// ProcessBuffer runs a buffer through the cascade
func (c *Cascade) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = c.Process(sample)
	}
	return output
}

// Reset clears every section's delay line
func (c *Cascade) Reset() {
	for _, s := range c.sections {
		s.Reset()
	}
}

// ResetSteadyState primes every section for a constant input x0
func (c *Cascade) ResetSteadyState(x0 float64) {
	v := x0
	for _, s := range c.sections {
		v = s.ResetSteadyState(v)
	}
}

// PadLength returns the odd-extension length used at each edge by FiltFilt:
// three times the number of coefficients of the equivalent single filter.
func (c *Cascade) PadLength() int {
	return 3 * (2*len(c.sections) + 1)
}

// FiltFilt applies the cascade forward then backward, giving zero phase
// distortion and squared magnitude response. Edges are extended by odd
// reflection and each pass starts from the steady state of its first sample.
// The cascade's state is left reset.
func (c *Cascade) FiltFilt(x []float64) ([]float64, error) {
	padLen := c.PadLength()
	n := len(x)
	if n <= padLen {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShort, n, padLen)
	}
	defer c.Reset()

	ext := oddExtend(x, padLen)

	// Forward pass
	c.ResetSteadyState(ext[0])
	y := c.ProcessBuffer(ext)

	// Backward pass
	reverse(y)
	c.ResetSteadyState(y[0])
	y = c.ProcessBuffer(y)
	reverse(y)

	out := make([]float64, n)
	copy(out, y[padLen:padLen+n])

	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrUnstable
		}
	}

	return out, nil
}

// BandpassZeroPhase band-pass filters x between low and high Hz with a
// second-order Butterworth design applied forward and backward.
func BandpassZeroPhase(x []float64, sampleRate, low, high float64) ([]float64, error) {
	bp, err := NewBandpass(sampleRate, low, high)
	if err != nil {
		return nil, err
	}
	return bp.FiltFilt(x)
}

// oddExtend reflects padLen samples about each end point
func oddExtend(x []float64, padLen int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*padLen)

	for i := 0; i < padLen; i++ {
		ext[i] = 2*x[0] - x[padLen-i]
	}
	copy(ext[padLen:], x)
	for i := 0; i < padLen; i++ {
		ext[padLen+n+i] = 2*x[n-1] - x[n-2-i]
	}

	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
