package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/hrv"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(DefaultConfig()).Take(50)
	b := NewGenerator(DefaultConfig()).Take(50)
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	cfg.Seed = 2
	c := NewGenerator(cfg).Take(50)
	assert.NotEqual(t, a, c)
}

func TestGenerator_MeanAndSpread(t *testing.T) {
	samples := NewGenerator(DefaultConfig()).Take(300)
	rr := hrv.Intervals(samples)

	assert.InDelta(t, 800.0, common.Mean(rr), 5)
	// 50 ms sine has std 35 ms; noise adds little
	assert.InDelta(t, 35.0, common.StandardDeviation(rr), 5)
}

func TestGenerator_TimestampsAdvanceByInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartTime = 100
	samples := NewGenerator(cfg).Take(10)

	prev := 100.0
	for _, s := range samples {
		assert.InDelta(t, prev+s.IntervalMs/1000, s.Timestamp, 1e-9)
		prev = s.Timestamp
	}
}

func TestGenerator_NoNoiseIsPureModulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoiseMs = 0
	cfg.AmplitudeMs = 0

	for _, s := range NewGenerator(cfg).Take(5) {
		assert.Equal(t, 800.0, s.IntervalMs)
	}
}

func TestGenerator_SetBreathingRetunesModulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoiseMs = 0
	g := NewGenerator(cfg)

	last := g.Take(10)[9].Timestamp
	g.SetBreathing(12)
	assert.Equal(t, 12.0, g.Breathing())

	next := g.Next()
	assert.InDelta(t, 800+50*math.Sin(2*math.Pi*0.2*last), next.IntervalMs, 1e-9)
}

func TestRampRate(t *testing.T) {
	assert.Equal(t, 12.0, RampRate(12, 6, -1, 60))
	assert.Equal(t, 9.0, RampRate(12, 6, 30, 60))
	assert.Equal(t, 6.0, RampRate(12, 6, 90, 60))
	assert.Equal(t, 6.0, RampRate(12, 6, 0, 0))
}

func TestGenerator_StreamEntrainsFromCallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartRateBPM = 200
	g := NewGenerator(cfg)

	stop := errors.New("stop")
	n := 0
	err := g.Stream(context.Background(), 100, func(s hrv.Sample) error {
		g.SetBreathing(RampRate(6, 12, s.Timestamp, 1))
		n++
		if n == 5 {
			return stop
		}
		return nil
	})

	require.ErrorIs(t, err, stop)
	assert.Equal(t, 12.0, g.Breathing())
}

func TestGenerator_ResetRepeats(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	first := g.Take(5)
	g.Reset()
	assert.Equal(t, first, g.Take(5))
}

func TestGenerator_StreamStopsOnEmitError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartRateBPM = 200 // 300 ms beats
	g := NewGenerator(cfg)

	stop := errors.New("stop")
	var got []hrv.Sample
	err := g.Stream(context.Background(), 100, func(s hrv.Sample) error {
		got = append(got, s)
		if len(got) == 3 {
			return stop
		}
		return nil
	})

	require.ErrorIs(t, err, stop)
	assert.Len(t, got, 3)
}

func TestGenerator_StreamHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewGenerator(DefaultConfig()).Stream(ctx, 1, func(hrv.Sample) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
