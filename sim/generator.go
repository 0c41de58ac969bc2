// Package sim generates synthetic RR intervals with a breathing modulation.
// It stands in for a chest strap during development and in tests.
package sim

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/RyanBlaney/sonido-coherence/hrv"
)

// Config describes the simulated subject
type Config struct {
	HeartRateBPM float64 `json:"heart_rate_bpm" yaml:"heart_rate_bpm"`
	BreathingCPM float64 `json:"breathing_cpm" yaml:"breathing_cpm"`
	AmplitudeMs  float64 `json:"amplitude_ms" yaml:"amplitude_ms"` // RSA modulation depth
	NoiseMs      float64 `json:"noise_ms" yaml:"noise_ms"`         // gaussian sigma
	Seed         uint64  `json:"seed" yaml:"seed"`
	StartTime    float64 `json:"start_time" yaml:"start_time"` // seconds
}

// DefaultConfig returns 75 bpm breathing at 6 cpm with 50 ms modulation and
// 5 ms noise
func DefaultConfig() Config {
	return Config{
		HeartRateBPM: 75,
		BreathingCPM: 6,
		AmplitudeMs:  50,
		NoiseMs:      5,
		Seed:         1,
	}
}

// Generator produces a deterministic RR sequence for a seed. Each interval is
// 60000/bpm + amplitude*sin(2*pi*f*t) + N(0, noise), with t advancing by the
// intervals themselves. A Generator is not safe for concurrent use.
type Generator struct {
	config Config
	rng    *rand.Rand
	t      float64
}

// NewGenerator creates a generator at config.StartTime
func NewGenerator(config Config) *Generator {
	g := &Generator{config: config}
	g.Reset()
	return g
}

// Reset rewinds to the start time and reseeds
func (g *Generator) Reset() {
	g.rng = rand.New(rand.NewPCG(g.config.Seed, g.config.Seed^0x9e3779b97f4a7c15))
	g.t = g.config.StartTime
}

// SetBreathing changes the breathing rate for subsequent beats. It may be
// called from the emit callback of Stream.
func (g *Generator) SetBreathing(cpm float64) {
	g.config.BreathingCPM = cpm
}

// Breathing returns the current breathing rate in cpm
func (g *Generator) Breathing() float64 {
	return g.config.BreathingCPM
}

// RampRate moves linearly from one breathing rate to another over the given
// number of seconds and holds the end rate afterwards. A non-positive duration
// jumps straight to the end rate.
func RampRate(from, to, elapsed, over float64) float64 {
	if over <= 0 || elapsed >= over {
		return to
	}
	if elapsed <= 0 {
		return from
	}
	return from + (to-from)*elapsed/over
}

// Next returns the next beat. Its timestamp is the time the beat ends.
func (g *Generator) Next() hrv.Sample {
	base := 60000.0 / g.config.HeartRateBPM
	f := g.config.BreathingCPM / 60.0

	rr := base + g.config.AmplitudeMs*math.Sin(2*math.Pi*f*g.t)
	if g.config.NoiseMs > 0 {
		rr += g.rng.NormFloat64() * g.config.NoiseMs
	}

	g.t += rr / 1000.0
	return hrv.Sample{Timestamp: g.t, IntervalMs: rr}
}

// Take returns the next n beats
func (g *Generator) Take(n int) []hrv.Sample {
	out := make([]hrv.Sample, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

// Stream emits beats in real time, scaled by speed (2 plays twice as fast),
// until ctx is done or emit returns an error.
func (g *Generator) Stream(ctx context.Context, speed float64, emit func(hrv.Sample) error) error {
	if speed <= 0 {
		speed = 1
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		s := g.Next()
		timer.Reset(time.Duration(s.IntervalMs / speed * float64(time.Millisecond)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := emit(s); err != nil {
			return err
		}
	}
}
