package score

import (
	"fmt"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Profile names a weighting of the sub-scores
type Profile string

const (
	// ProfileLive weights ratio 0.4, RMSSD 0.3 and respiration 0.3
	ProfileLive Profile = "live"
	// ProfilePremium weights ratio 0.4, HF fraction 0.3, respiration 0.2 and RMSSD 0.1
	ProfilePremium Profile = "premium"
)

// Weights are the sub-score coefficients of a profile. They sum to 1.
type Weights struct {
	Ratio       float64 `json:"ratio"`
	RMSSD       float64 `json:"rmssd"`
	Respiration float64 `json:"respiration"`
	HFFraction  float64 `json:"hf_fraction"`
}

var profiles = map[Profile]Weights{
	ProfileLive:    {Ratio: 0.4, RMSSD: 0.3, Respiration: 0.3},
	ProfilePremium: {Ratio: 0.4, HFFraction: 0.3, Respiration: 0.2, RMSSD: 0.1},
}

// WeightsFor returns the weights of a profile
func WeightsFor(p Profile) (Weights, error) {
	w, ok := profiles[p]
	if !ok {
		return Weights{}, fmt.Errorf("unknown score profile %q", p)
	}
	return w, nil
}

// Inputs are the raw metrics of one tick
type Inputs struct {
	RMSSD     float64
	SDNN      float64
	LF        float64
	HF        float64
	Ratio     float64
	RespHz    float64
	RespValid bool
}

// Components are the normalised sub-scores, each in [0, 1]
type Components struct {
	Ratio       float64 `json:"ratio"`
	RMSSD       float64 `json:"rmssd"`
	Respiration float64 `json:"respiration"`
	HFFraction  float64 `json:"hf_fraction"`
	SDNN        float64 `json:"sdnn"`
}

// Normalize computes every sub-score
func Normalize(in Inputs) Components {
	return Components{
		Ratio:       NormRatio(in.LF, in.HF, in.Ratio),
		RMSSD:       NormRMSSD(in.RMSSD),
		Respiration: NormRespiration(in.RespHz, in.RespValid),
		HFFraction:  NormHFFraction(in.LF, in.HF),
		SDNN:        NormSDNN(in.SDNN),
	}
}

// Scorer combines sub-scores with a fixed profile
type Scorer struct {
	profile Profile
	weights Weights
}

// NewScorer creates a scorer for profile
func NewScorer(profile Profile) (*Scorer, error) {
	w, err := WeightsFor(profile)
	if err != nil {
		return nil, err
	}
	return &Scorer{profile: profile, weights: w}, nil
}

// Profile returns the active profile
func (s *Scorer) Profile() Profile {
	return s.profile
}

// Score returns the composite in [0, 100] together with the sub-scores
func (s *Scorer) Score(in Inputs) (float64, Components) {
	c := Normalize(in)
	return s.Combine(c), c
}

// Combine weights already-normalised sub-scores into [0, 100]
func (s *Scorer) Combine(c Components) float64 {
	w := s.weights
	total := w.Ratio*common.Clamp01(c.Ratio) +
		w.RMSSD*common.Clamp01(c.RMSSD) +
		w.Respiration*common.Clamp01(c.Respiration) +
		w.HFFraction*common.Clamp01(c.HFFraction)

	return 100.0 * common.Clamp01(total)
}
