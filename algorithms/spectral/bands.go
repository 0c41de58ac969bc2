package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Band is a frequency interval in Hz. Low is inclusive; High is inclusive
// only when Closed is set.
type Band struct {
	Low    float64
	High   float64
	Closed bool
}

// Standard HRV bands
var (
	LFBand = Band{Low: 0.04, High: 0.15}
	HFBand = Band{Low: 0.15, High: 0.40, Closed: true}
)

// Contains reports whether f falls inside the band
func (b Band) Contains(f float64) bool {
	if f < b.Low {
		return false
	}
	if b.Closed {
		return f <= b.High
	}
	return f < b.High
}

// Select returns the frequencies and powers that fall inside the band
func (b Band) Select(freq, power []float64) (bf, bp []float64) {
	for i, f := range freq {
		if i >= len(power) {
			break
		}
		if b.Contains(f) {
			bf = append(bf, f)
			bp = append(bp, power[i])
		}
	}
	return bf, bp
}

// Power integrates the density over the band with the trapezoidal rule.
// Fewer than two bins in the band integrate to zero.
func (b Band) Power(freq, power []float64) float64 {
	bf, bp := b.Select(freq, power)
	if len(bf) < 2 {
		return 0.0
	}
	return common.Trapezoid(bf, bp)
}

// Median returns the median density inside the band, zero if empty
func (b Band) Median(freq, power []float64) float64 {
	_, bp := b.Select(freq, power)
	return common.Median(bp)
}

// Peak is a spectral maximum
type Peak struct {
	Frequency float64
	Power     float64
	BinIndex  int // index into the full spectrum
}

// Peak finds the bin of greatest density inside the band. ok is false when
// the band has no bins.
func (b Band) Peak(freq, power []float64) (peak Peak, ok bool) {
	best := -1
	for i, f := range freq {
		if i >= len(power) || !b.Contains(f) {
			continue
		}
		if best < 0 || power[i] > power[best] {
			best = i
		}
	}
	if best < 0 {
		return Peak{}, false
	}

	return Peak{Frequency: freq[best], Power: power[best], BinIndex: best}, true
}

// RefinePeak refines a peak location using parabolic interpolation over its
// neighbouring bins. Edge bins and flat neighbourhoods are returned unchanged.
func RefinePeak(freq, power []float64, peak Peak) Peak {
	binIdx := peak.BinIndex
	if binIdx <= 0 || binIdx >= len(power)-1 || len(freq) != len(power) {
		return peak
	}

	y1 := power[binIdx-1]
	y2 := power[binIdx]
	y3 := power[binIdx+1]

	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) <= 1e-10 {
		return peak
	}

	offset := (y3 - y1) / denom
	if offset < -0.5 || offset > 0.5 {
		return peak
	}
	resolution := freq[binIdx+1] - freq[binIdx]

	a := 0.5 * (y1 - 2.0*y2 + y3)
	bb := 0.5 * (y3 - y1)

	return Peak{
		Frequency: freq[binIdx] + offset*resolution,
		Power:     y2 + a*offset*offset + bb*offset,
		BinIndex:  binIdx,
	}
}
