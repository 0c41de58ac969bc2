package smoothing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEMA_SeedsExactly(t *testing.T) {
	e := NewEMA(0.3)

	_, ok := e.Value()
	assert.False(t, ok)

	assert.Equal(t, 10.0, e.Push(10))
	assert.InDelta(t, 0.7*10+0.3*20, e.Push(20), 1e-12)
}

func TestEMA_AlphaOnePassesThrough(t *testing.T) {
	e := NewEMA(1)
	for _, x := range []float64{3, -7, 12.5, 0} {
		assert.Equal(t, x, e.Push(x))
	}
}

func TestEMA_AlphaZeroHoldsSeed(t *testing.T) {
	e := NewEMA(0)
	e.Push(4)
	for _, x := range []float64{100, -3, 9} {
		assert.Equal(t, 4.0, e.Push(x))
	}
}

func TestEMA_Reset(t *testing.T) {
	e := NewEMA(0.5)
	e.Push(4)
	e.Reset()

	assert.Equal(t, 9.0, e.Push(9))
}

func TestAntiJump_ClipsLargeJumps(t *testing.T) {
	a := NewAntiJump(0.25)

	assert.Equal(t, 62.5, a.Apply(100, 50))
	assert.Equal(t, 60.0, a.Apply(60, 50))
	assert.Equal(t, 37.5, a.Apply(10, 50))
	assert.Equal(t, 62.5, a.Apply(62.5, 50))
}

func TestAntiJump_ZeroReferenceAccepts(t *testing.T) {
	a := NewAntiJump(0.25)

	assert.Equal(t, 100.0, a.Apply(100, 0))
	assert.Equal(t, 100.0, a.Apply(100, math.NaN()))
}

func TestAntiJump_NegativeReference(t *testing.T) {
	a := NewAntiJump(0.5)

	assert.Equal(t, -15.0, a.Apply(-100, -10))
	assert.Equal(t, -5.0, a.Apply(10, -10))
}

func TestRateLimiter_BoundsChange(t *testing.T) {
	r := NewRateLimiter(2.0)
	t0 := time.Unix(1000, 0)

	assert.Equal(t, 6.0, r.Step(6, t0))
	assert.InDelta(t, 6.5, r.Step(12, t0.Add(250*time.Millisecond)), 1e-12)
	assert.InDelta(t, 8.5, r.Step(12, t0.Add(1250*time.Millisecond)), 1e-12)
	assert.InDelta(t, 8.0, r.Step(8, t0.Add(2*time.Second)), 1e-12)
}

func TestRateLimiter_SameInstantUsesMinimumStep(t *testing.T) {
	r := NewRateLimiter(1.0)
	t0 := time.Unix(0, 0)

	r.Step(0, t0)
	v := r.Step(100, t0)
	assert.InDelta(t, 1e-6, v, 1e-12)
}

func TestRateLimiter_Reset(t *testing.T) {
	r := NewRateLimiter(1.0)
	t0 := time.Unix(0, 0)
	r.Step(0, t0)
	r.Reset()

	assert.Equal(t, 50.0, r.Step(50, t0.Add(time.Millisecond)))
}

func TestStabilizer_FirstUpdateSeeds(t *testing.T) {
	s := NewStabilizer(DefaultConfig())

	_, ok := s.Value()
	assert.False(t, ok)

	assert.Equal(t, 6.0, s.Update(6, time.Unix(0, 0)))
}

func TestStabilizer_BoundedStepPerTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRatePerSecond = 0
	s := NewStabilizer(cfg)
	now := time.Unix(0, 0)

	prev := s.Update(6, now)
	for i := range 20 {
		now = now.Add(250 * time.Millisecond)
		raw := 20.0
		if i%2 == 1 {
			raw = 2.0
		}
		v := s.Update(raw, now)
		assert.LessOrEqual(t, math.Abs(v-prev), cfg.MaxRelativeStep*math.Abs(prev)+1e-9)
		prev = v
	}
}

func TestStabilizer_OrderAntiJumpThenEMAThenRate(t *testing.T) {
	s := NewStabilizer(Config{Alpha: 0.5, MaxRelativeStep: 0.25, MaxRatePerSecond: 1.0})
	t0 := time.Unix(0, 0)

	s.Update(10, t0)
	// anti-jump: 20 -> 12.5; ema: 11.25; rate limit over 1 s: 11
	assert.InDelta(t, 11.0, s.Update(20, t0.Add(time.Second)), 1e-12)
}

func TestStabilizer_NonFiniteKeepsMemory(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	t0 := time.Unix(0, 0)
	s.Update(7, t0)

	assert.Equal(t, 7.0, s.Update(math.NaN(), t0.Add(time.Second)))
	v, ok := s.Value()
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)
}

func TestStabilizer_Reset(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	t0 := time.Unix(0, 0)
	s.Update(7, t0)
	s.Reset()

	_, ok := s.Value()
	assert.False(t, ok)
	assert.Equal(t, 15.0, s.Update(15, t0.Add(time.Second)))
}
