package edr

import (
	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Candidate is a rate with its fusion weight
type Candidate struct {
	RateCPM float64
	Weight  float64
}

// Fuse combines candidates into one rate by weight-normalised averaging.
// Negative weights count as zero. With no candidates ok is false; a single
// candidate is returned unchanged; when every weight is zero the first
// candidate's rate is returned.
func Fuse(candidates []Candidate) (rate float64, ok bool) {
	switch len(candidates) {
	case 0:
		return 0, false
	case 1:
		return candidates[0].RateCPM, true
	}

	var sum, total float64
	for _, c := range candidates {
		w := max(c.Weight, 0)
		sum += w * c.RateCPM
		total += w
	}
	if total == 0 {
		return candidates[0].RateCPM, true
	}
	return sum / total, true
}

// Fused is the combined respiration estimate
type Fused struct {
	RateCPM  float64   `json:"rate_cpm"`
	Valid    bool      `json:"valid"`
	Quality  float64   `json:"quality"`
	Waveform *Waveform `json:"waveform,omitempty"`
	Sources  int       `json:"sources"`
}

// FuseEstimates fuses the valid estimates weighted by their quality. Absent
// estimates contribute nothing. The fused quality is the weighted mean of the
// contributing qualities and the waveform comes from the best-quality
// estimate that has one.
func FuseEstimates(estimates []Estimate) Fused {
	var candidates []Candidate
	var qualities []float64
	var best *Estimate
	for i := range estimates {
		e := &estimates[i]
		if !e.Valid || !common.IsFinite(e.RateCPM) {
			continue
		}
		q := common.Clamp01(e.Quality)
		candidates = append(candidates, Candidate{RateCPM: e.RateCPM, Weight: q})
		qualities = append(qualities, q)
		if e.Waveform.Len() > 0 && (best == nil || q > common.Clamp01(best.Quality)) {
			best = e
		}
	}

	rate, ok := Fuse(candidates)
	if !ok {
		return Fused{}
	}

	fused := Fused{RateCPM: rate, Valid: true, Sources: len(candidates)}

	var wq, total float64
	for _, q := range qualities {
		wq += q * q
		total += q
	}
	if total > 0 {
		fused.Quality = common.Clamp01(wq / total)
	}
	if best != nil {
		fused.Waveform = best.Waveform
	}
	return fused
}
