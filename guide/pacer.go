// Package guide paces breathing: an inhale/exhale cycle that the user
// follows and whose rate is the target the score rewards.
package guide

import (
	"fmt"
	"math"
	"time"
)

// Config sets the inhale and exhale durations
type Config struct {
	Inhale time.Duration `json:"inhale" yaml:"inhale"`
	Exhale time.Duration `json:"exhale" yaml:"exhale"`
}

// DefaultConfig breathes in for 4 s and out for 6 s, 6 cycles per minute
func DefaultConfig() Config {
	return Config{Inhale: 4 * time.Second, Exhale: 6 * time.Second}
}

// MinPhase is the shortest accepted inhale or exhale
const MinPhase = time.Second

// Phase names the half of the cycle
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseExhale Phase = "exhale"
)

// Frame is the pacer position at one instant
type Frame struct {
	Phase    Phase   `json:"phase"`
	Progress float64 `json:"progress"` // 0 at the start of the phase, 1 at its end
	Value    float64 `json:"value"`    // -1 fully exhaled, +1 fully inhaled
}

// Pacer tracks the position of the breathing cycle relative to a start time
type Pacer struct {
	config Config
	start  time.Time
}

// NewPacer starts a cycle at start with an inhale
func NewPacer(config Config, start time.Time) (*Pacer, error) {
	if config.Inhale < MinPhase || config.Exhale < MinPhase {
		return nil, fmt.Errorf("inhale %v and exhale %v must be at least %v", config.Inhale, config.Exhale, MinPhase)
	}
	return &Pacer{config: config, start: start}, nil
}

// Period returns the length of one cycle
func (p *Pacer) Period() time.Duration {
	return p.config.Inhale + p.config.Exhale
}

// RateCPM returns cycles per minute
func (p *Pacer) RateCPM() float64 {
	return 60.0 / p.Period().Seconds()
}

// Restart moves the start of the cycle to t
func (p *Pacer) Restart(t time.Time) {
	p.start = t
}

// At returns the pacer frame at time t. Times before the start wrap backwards.
func (p *Pacer) At(t time.Time) Frame {
	return p.frame(t.Sub(p.start).Seconds())
}

func (p *Pacer) frame(elapsed float64) Frame {
	period := p.Period().Seconds()
	inhale := p.config.Inhale.Seconds()

	pos := math.Mod(elapsed, period)
	if pos < 0 {
		pos += period
	}

	if pos < inhale {
		progress := pos / inhale
		return Frame{Phase: PhaseInhale, Progress: progress, Value: -math.Cos(math.Pi * progress)}
	}
	progress := (pos - inhale) / (period - inhale)
	return Frame{Phase: PhaseExhale, Progress: progress, Value: math.Cos(math.Pi * progress)}
}

// Waveform samples the next duration of the cycle from t at points evenly
// spaced instants. Times are seconds relative to t.
func (p *Pacer) Waveform(t time.Time, duration time.Duration, points int) (times, values []float64) {
	if points < 2 || duration <= 0 {
		return nil, nil
	}

	origin := t.Sub(p.start).Seconds()
	step := duration.Seconds() / float64(points-1)
	times = make([]float64, points)
	values = make([]float64, points)
	for i := range times {
		times[i] = float64(i) * step
		values[i] = p.frame(origin + times[i]).Value
	}
	return times, values
}

// Feedback compares the measured breathing rate with the pacer
type Feedback struct {
	TargetCPM    float64 `json:"target_cpm"`
	DeviationCPM float64 `json:"deviation_cpm"` // measured minus target
	Valid        bool    `json:"valid"`
}

// Feedback reports how far rateCPM is from the pacer rate. An absent rate
// gives an invalid feedback carrying only the target.
func (p *Pacer) Feedback(rateCPM float64, valid bool) Feedback {
	fb := Feedback{TargetCPM: p.RateCPM()}
	if !valid || rateCPM <= 0 || math.IsNaN(rateCPM) || math.IsInf(rateCPM, 0) {
		return fb
	}
	fb.DeviationCPM = rateCPM - fb.TargetCPM
	fb.Valid = true
	return fb
}
