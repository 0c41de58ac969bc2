package smoothing

import (
	"math"
	"time"
)

// Config tunes a Stabilizer. Zero MaxRelativeStep or MaxRatePerSecond
// disables that stage.
type Config struct {
	Alpha            float64 `json:"alpha" yaml:"alpha"`
	MaxRelativeStep  float64 `json:"max_relative_step" yaml:"max_relative_step"`
	MaxRatePerSecond float64 `json:"max_rate_per_second" yaml:"max_rate_per_second"`
}

// DefaultConfig returns the respiration-rate settings: alpha 0.3, at most 25%
// change per tick and 2 cpm per second
func DefaultConfig() Config {
	return Config{
		Alpha:            0.3,
		MaxRelativeStep:  0.25,
		MaxRatePerSecond: 2.0,
	}
}

// Stabilizer smooths one metric across ticks. Each update is clipped against
// the previous output, folded into an EMA and then rate limited.
type Stabilizer struct {
	config  Config
	jump    AntiJump
	ema     *EMA
	limiter *RateLimiter

	value  float64
	seeded bool
}

// NewStabilizer creates a stabilizer with no memory
func NewStabilizer(config Config) *Stabilizer {
	return &Stabilizer{
		config:  config,
		jump:    NewAntiJump(config.MaxRelativeStep),
		ema:     NewEMA(config.Alpha),
		limiter: NewRateLimiter(config.MaxRatePerSecond),
	}
}

// Update folds a new raw value observed at now and returns the stabilized
// value. Non-finite input leaves the memory untouched.
func (s *Stabilizer) Update(x float64, now time.Time) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return s.value
	}

	v := x
	if s.seeded && s.config.MaxRelativeStep > 0 {
		v = s.jump.Apply(v, s.value)
	}
	v = s.ema.Push(v)
	if s.config.MaxRatePerSecond > 0 {
		v = s.limiter.Step(v, now)
	}

	s.value = v
	s.seeded = true
	return v
}

// Value returns the last stabilized value and whether any update happened
func (s *Stabilizer) Value() (float64, bool) {
	return s.value, s.seeded
}

// Reset clears every stage
func (s *Stabilizer) Reset() {
	s.ema.Reset()
	s.limiter.Reset()
	s.value = 0
	s.seeded = false
}
