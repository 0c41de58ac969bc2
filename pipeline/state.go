package pipeline

import (
	"time"

	"github.com/RyanBlaney/sonido-coherence/edr"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/score"
)

// Minimum window sizes for each stage
const (
	MinTrivialSamples     = 4
	MinSpectralSamples    = hrv.MinSpectralSamples
	MinRespirationSamples = edr.MinSamples
)

// Respiration is the stabilized breathing estimate of one tick
type Respiration struct {
	RateCPM  float64       `json:"rate_cpm"`
	Valid    bool          `json:"valid"`
	Quality  float64       `json:"quality"`
	Waveform *edr.Waveform `json:"waveform,omitempty"`
	Sources  int           `json:"sources"`
}

// Hz returns the rate in Hz, zero when absent
func (r Respiration) Hz() float64 {
	if !r.Valid {
		return 0.0
	}
	return r.RateCPM / 60.0
}

// Grades are the display levels of the headline metrics
type Grades struct {
	SDNN  score.Level `json:"sdnn"`
	RMSSD score.Level `json:"rmssd"`
	LFHF  score.Level `json:"lf_hf"`
	Score score.Level `json:"score"`
}

// ProcessorState is the result of one computation tick. A new value is built
// on every tick and never modified afterwards, so it can be shared freely
// between goroutines.
type ProcessorState struct {
	ProcessorID string    `json:"processor_id"`
	Seq         uint64    `json:"seq"`
	ComputedAt  time.Time `json:"computed_at"`

	RR      []hrv.Sample `json:"rr"`
	Cleaned int          `json:"cleaned"` // samples left after artifact cleaning

	hrv.TimeDomain
	Spectral hrv.SpectralResult `json:"spectral"`

	Candidates  []edr.Estimate `json:"candidates,omitempty"`
	Respiration Respiration    `json:"respiration"`

	Score      float64          `json:"score"`
	RawScore   float64          `json:"raw_score"`
	Components score.Components `json:"components"`
	Sync       float64          `json:"sync"`
	Grades     Grades           `json:"grades"`
}

// Ready reports whether the window held enough samples for time-domain metrics
func (s *ProcessorState) Ready() bool {
	return s != nil && s.Cleaned >= MinTrivialSamples
}

// Target is the read-only breathing guide derived from the latest state
type Target struct {
	RateCPM   float64 `json:"rate_cpm"`
	Valid     bool    `json:"valid"`
	Component float64 `json:"component"` // respiration sub-score in [0, 1]
}
