package common

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// ErrDegenerateSpan is returned when a time axis cannot support resampling.
var ErrDegenerateSpan = errors.New("degenerate time span")

// MaxResamplePoints bounds the uniform grid. At 4 Hz it covers about 4.5 hours.
const MaxResamplePoints = 1 << 16

// UniformResample linearly interpolates an irregularly sampled series (t, y)
// onto a uniform grid starting at t[0] with spacing 1/sampleRate, stopping
// before t[len(t)-1]. The time axis must be strictly increasing, and a span
// needing more than MaxResamplePoints grid points is rejected as degenerate.
func UniformResample(t, y []float64, sampleRate float64) (grid, values []float64, err error) {
	if len(t) != len(y) {
		return nil, nil, fmt.Errorf("time axis (%d) and values (%d) differ in length", len(t), len(y))
	}
	if len(t) < 2 {
		return nil, nil, ErrTooShort
	}
	if sampleRate <= 0 || !IsFinite(sampleRate) {
		return nil, nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if !IsStrictlyIncreasing(t) || !AllFinite(y) {
		return nil, nil, ErrDegenerateSpan
	}

	span := t[len(t)-1] - t[0]
	points := math.Ceil(span*sampleRate - 1e-9)
	if !(points >= 2) || points > MaxResamplePoints {
		return nil, nil, fmt.Errorf("%w: %.0f grid points over %.3gs", ErrDegenerateSpan, points, span)
	}
	n := int(points)

	var pl interp.PiecewiseLinear
	if err := pl.Fit(t, y); err != nil {
		return nil, nil, fmt.Errorf("fit interpolant: %w", err)
	}

	grid = make([]float64, n)
	values = make([]float64, n)
	step := 1.0 / sampleRate
	for i := range grid {
		grid[i] = t[0] + float64(i)*step
		values[i] = pl.Predict(grid[i])
	}

	return grid, values, nil
}

// CumulativeTime builds a time axis in seconds from successive RR intervals in
// milliseconds, starting at zero for the first beat.
func CumulativeTime(rrMs []float64) []float64 {
	t := make([]float64, len(rrMs))
	if len(rrMs) == 0 {
		return t
	}

	acc := 0.0
	for i, rr := range rrMs {
		acc += rr / 1000.0
		t[i] = acc
	}

	// Shift so the first beat sits at t=0
	offset := t[0]
	for i := range t {
		t[i] -= offset
	}
	return t
}

// IsStrictlyIncreasing reports whether every element is greater than the previous one
func IsStrictlyIncreasing(data []float64) bool {
	for i := 1; i < len(data); i++ {
		if !(data[i] > data[i-1]) {
			return false
		}
	}
	return true
}
