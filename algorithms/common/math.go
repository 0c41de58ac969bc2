package common

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across the analysis stages, backed by gonum

// Epsilon is the threshold under which a spread or power is treated as zero.
const Epsilon = 1e-12

// ErrTooShort is returned when a series has fewer points than an operation needs.
var ErrTooShort = errors.New("series too short")

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance (denominator n-1) using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// PopStandardDeviation calculates the population standard deviation (denominator n)
func PopStandardDeviation(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(stat.PopVariance(data, nil))
}

// Median returns the middle value of data, averaging the two central values
// for even lengths. The input is not modified.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// MedianAbsoluteDeviation returns median(|x - median(x)|) together with the median.
func MedianAbsoluteDeviation(data []float64) (mad, median float64) {
	if len(data) == 0 {
		return 0.0, 0.0
	}

	median = Median(data)
	deviations := make([]float64, len(data))
	for i, v := range data {
		deviations[i] = math.Abs(v - median)
	}

	return Median(deviations), median
}

// Clamp constrains a value to a range. NaN is mapped to min.
func Clamp(value, min, max float64) float64 {
	if math.IsNaN(value) || value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp01 constrains a value to [0, 1]
func Clamp01(value float64) float64 {
	return Clamp(value, 0, 1)
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every element of data is finite
func AllFinite(data []float64) bool {
	for _, v := range data {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// SafeFloat returns v when finite and fallback otherwise
func SafeFloat(v, fallback float64) float64 {
	if !IsFinite(v) {
		return fallback
	}
	return v
}

// Diff returns successive differences data[i+1] - data[i]
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	diff := make([]float64, len(data)-1)
	for i := 0; i < len(data)-1; i++ {
		diff[i] = data[i+1] - data[i]
	}
	return diff
}

// Gradient computes the numerical derivative of uniformly spaced samples using
// central differences in the interior and one-sided differences at the edges.
func Gradient(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return make([]float64, n)
	}

	grad := make([]float64, n)
	grad[0] = data[1] - data[0]
	grad[n-1] = data[n-1] - data[n-2]
	for i := 1; i < n-1; i++ {
		grad[i] = (data[i+1] - data[i-1]) / 2.0
	}
	return grad
}

// RemoveMean returns data with its mean subtracted
func RemoveMean(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(out) == 0 {
		return out
	}
	floats.AddConst(-Mean(out), out)
	return out
}

// LinearDetrend removes the least-squares line fitted against the sample index.
// Series shorter than 3 points are returned unchanged (copied).
func LinearDetrend(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(out) < 3 {
		return out
	}

	x := make([]float64, len(out))
	floats.Span(x, 0, float64(len(out)-1))

	alpha, beta := stat.LinearRegression(x, out, nil, false)
	for i := range out {
		out[i] -= alpha + beta*x[i]
	}
	return out
}

// Trapezoid integrates f over x with the trapezoidal rule. Fewer than two
// points integrate to zero.
func Trapezoid(x, f []float64) float64 {
	if len(x) < 2 || len(x) != len(f) {
		return 0.0
	}
	return integrate.Trapezoidal(x, f)
}

// ArgMax returns the index of the largest value, or -1 for an empty slice
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}
