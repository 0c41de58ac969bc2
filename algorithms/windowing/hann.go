// Package windowing holds the taper applied to each Welch segment.
package windowing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hann is a raised-cosine taper of fixed length. Its coefficients and power
// are computed once and never change.
type Hann struct {
	coeffs []float64
	power  float64
}

// NewPeriodicHann returns the DFT-even taper, 0.5*(1-cos(2*pi*i/n)). It is the
// form Welch averaging uses.
func NewPeriodicHann(n int) *Hann {
	return newHann(n, float64(n))
}

// NewSymmetricHann returns the taper that is zero at both ends,
// 0.5*(1-cos(2*pi*i/(n-1))).
func NewSymmetricHann(n int) *Hann {
	return newHann(n, float64(n-1))
}

func newHann(n int, period float64) *Hann {
	if n <= 0 {
		return &Hann{}
	}

	c := make([]float64, n)
	if n == 1 {
		c[0] = 1
	} else {
		for i := range c {
			c[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/period)
		}
	}
	return &Hann{coeffs: c, power: floats.Dot(c, c)}
}

// Len is the number of coefficients
func (h *Hann) Len() int { return len(h.coeffs) }

// Power is the sum of squared coefficients, the U term of density scaling
func (h *Hann) Power() float64 { return h.power }

// Coefficients returns a copy of the taper
func (h *Hann) Coefficients() []float64 {
	return append([]float64(nil), h.coeffs...)
}

// Taper multiplies segment by the window in place
func (h *Hann) Taper(segment []float64) error {
	if len(segment) != len(h.coeffs) {
		return fmt.Errorf("segment of %d samples, taper has %d", len(segment), len(h.coeffs))
	}
	floats.Mul(segment, h.coeffs)
	return nil
}
