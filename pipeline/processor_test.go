package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/score"
	"github.com/RyanBlaney/sonido-coherence/sim"
)

func newTestProcessor(t *testing.T, clock Clock) *Processor {
	t.Helper()
	p, err := NewProcessor(DefaultConfig(), WithClock(clock), WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	return p
}

func feed(p *Processor, samples []hrv.Sample) {
	for _, s := range samples {
		p.PushSample(s)
	}
}

func TestProcessor_EmptyWindowIsDegenerate(t *testing.T) {
	p := newTestProcessor(t, NewMockClock(time.Time{}))
	assert.Nil(t, p.Latest())

	st := p.Compute()
	require.NotNil(t, st)
	assert.Equal(t, uint64(1), st.Seq)
	assert.False(t, st.Ready())
	assert.Zero(t, st.RMSSD)
	assert.Zero(t, st.SDNN)
	assert.False(t, st.Spectral.Valid())
	assert.False(t, st.Respiration.Valid)
	assert.Zero(t, st.Score)
	assert.Same(t, st, p.Latest())
	assert.Equal(t, p.ID().String(), st.ProcessorID)
}

func TestProcessor_PushDropsImplausible(t *testing.T) {
	p := newTestProcessor(t, NewMockClock(time.Time{}))

	assert.False(t, p.Push(0, 1))
	assert.False(t, p.Push(-800, 1))
	assert.False(t, p.Push(5000, 1))
	assert.True(t, p.Push(800, 1))
	assert.Equal(t, 1, p.Window().Len())
}

func TestProcessor_Tiers(t *testing.T) {
	gen := sim.NewGenerator(sim.DefaultConfig())
	p := newTestProcessor(t, NewMockClock(time.Time{}))

	feed(p, gen.Take(3))
	st := p.Compute()
	assert.False(t, st.Ready())
	assert.Zero(t, st.RMSSD)

	// Time domain only
	feed(p, gen.Take(3))
	st = p.Compute()
	assert.True(t, st.Ready())
	assert.Greater(t, st.RMSSD, 0.0)
	assert.False(t, st.Spectral.Valid())
	assert.False(t, st.Respiration.Valid)

	// Spectral without respiration
	feed(p, gen.Take(9))
	st = p.Compute()
	assert.True(t, st.Spectral.Valid())
	assert.False(t, st.Respiration.Valid)
	for _, c := range st.Candidates {
		assert.False(t, c.Valid, c.Method)
	}
}

func TestProcessor_EndToEndSixCPM(t *testing.T) {
	p := newTestProcessor(t, NewMockClock(time.Time{}))
	feed(p, sim.NewGenerator(sim.DefaultConfig()).Take(40))

	st := p.Compute()
	assert.Equal(t, 40, st.Cleaned)
	assert.Greater(t, st.RMSSD, 0.0)
	assert.Greater(t, st.Spectral.LF, 0.0)
	assert.Greater(t, st.Spectral.HF, 0.0)
	assert.Greater(t, st.Spectral.Ratio, 0.0)

	require.True(t, st.Respiration.Valid)
	assert.GreaterOrEqual(t, st.Respiration.RateCPM, 5.0)
	assert.LessOrEqual(t, st.Respiration.RateCPM, 7.0)
	assert.NotNil(t, st.Respiration.Waveform)

	assert.Greater(t, st.Score, 0.0)
	assert.Less(t, st.Score, 100.0)
	assert.Equal(t, st.RawScore, st.Score, "first update seeds the score")
	assert.Greater(t, st.Sync, 0.0)

	target := p.RespirationTarget()
	assert.True(t, target.Valid)
	assert.Equal(t, st.Respiration.RateCPM, target.RateCPM)
	assert.Equal(t, st.Components.Respiration, target.Component)
}

func TestProcessor_SensorClockJumpStaysBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.MaxAge = 0
	p, err := NewProcessor(cfg, WithClock(NewMockClock(time.Time{})), WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	gen := sim.NewGenerator(sim.DefaultConfig())
	feed(p, gen.Take(20))
	later := gen.Take(20)
	for i := range later {
		later[i].Timestamp += 1e7
	}
	feed(p, later)
	require.Equal(t, 40, p.Window().Len())

	start := time.Now()
	st := p.Compute()
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.True(t, st.Ready())
	assert.True(t, st.Spectral.Valid())
	assert.Greater(t, st.Spectral.HF, 0.0)
}

func TestProcessor_StatesAreNotMutated(t *testing.T) {
	gen := sim.NewGenerator(sim.DefaultConfig())
	p := newTestProcessor(t, NewMockClock(time.Time{}))

	feed(p, gen.Take(20))
	first := p.Compute()
	rr := append([]hrv.Sample(nil), first.RR...)
	firstScore := first.Score

	feed(p, gen.Take(20))
	second := p.Compute()

	assert.NotSame(t, first, second)
	assert.Equal(t, rr, first.RR)
	assert.Equal(t, firstScore, first.Score)
	assert.Len(t, second.RR, 40)
}

func TestProcessor_ScoreIsSmoothed(t *testing.T) {
	clock := NewMockClock(time.Time{})
	p := newTestProcessor(t, clock)
	feed(p, sim.NewGenerator(sim.DefaultConfig()).Take(40))

	first := p.Compute()
	require.Greater(t, first.Score, 0.0)

	// An emptied window scores zero but the display only moves by alpha
	p.Window().Reset()
	clock.Advance(250 * time.Millisecond)
	st := p.Compute()
	assert.InDelta(t, first.Score*(1-p.Config().Score.SmoothingAlpha), st.Score, 1e-9)
}

func TestProcessor_Reset(t *testing.T) {
	p := newTestProcessor(t, NewMockClock(time.Time{}))
	feed(p, sim.NewGenerator(sim.DefaultConfig()).Take(40))
	require.True(t, p.Compute().Respiration.Valid)

	p.Reset()
	assert.Nil(t, p.Latest())
	assert.Equal(t, 0, p.Window().Len())
	assert.Equal(t, Target{}, p.RespirationTarget())

	st := p.Compute()
	assert.Zero(t, st.Score)
	assert.False(t, st.Respiration.Valid)
}

func TestProcessor_WithID(t *testing.T) {
	id := uuid.New()
	p, err := NewProcessor(DefaultConfig(), WithID(id), WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	assert.Equal(t, id.String(), p.Compute().ProcessorID)
}

func TestProcessor_ConcurrentPushAndCompute(t *testing.T) {
	p := newTestProcessor(t, MonotonicClock{})
	samples := sim.NewGenerator(sim.DefaultConfig()).Take(200)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		feed(p, samples)
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			st := p.Compute()
			assert.LessOrEqual(t, st.Score, 100.0)
		}
	}()
	wg.Wait()

	assert.Equal(t, 200, p.Window().Len())
}

func TestNewProcessor_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Respiration.Estimators = []string{"psychic"}
	_, err := NewProcessor(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Stabilizer.Alpha = 1.5
	_, err = NewProcessor(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]func(*Config){
		"window bounds":   func(c *Config) { c.Window.MinRRMs = 2500 },
		"cleaner":         func(c *Config) { c.Cleaner.Strategy = "none" },
		"spectral":        func(c *Config) { c.Spectral.MinSegment = 512 },
		"band":            func(c *Config) { c.Respiration.BandHigh = 3 },
		"rate range":      func(c *Config) { c.Respiration.MinRateCPM = 30 },
		"profile":         func(c *Config) { c.Score.Profile = "gold" },
		"score smoothing": func(c *Config) { c.Score.SmoothingAlpha = -0.1 },
		"tick":            func(c *Config) { c.TickInterval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coherence.yaml")
	yml := `
tick_interval: 100ms
score:
  profile: premium
cleaner:
  strategy: mad
window:
  max_age: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, score.ProfilePremium, cfg.Score.Profile)
	assert.Equal(t, hrv.StrategyMAD, cfg.Cleaner.Strategy)
	assert.Equal(t, 2*time.Minute, cfg.Window.MaxAge)
	// Untouched keys keep their defaults
	assert.Equal(t, 6.0, cfg.Score.TargetCPM)
	assert.Equal(t, 300, cfg.Window.MaxSamples)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("score:\n  target_cpm: -1\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMockClock(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Panics(t, func() { c.Advance(-time.Second) })
	assert.False(t, NewMockClock(time.Time{}).Now().IsZero())
}

func TestRunner_TickDeliversToHandlers(t *testing.T) {
	p := newTestProcessor(t, NewMockClock(time.Time{}))
	var got []*ProcessorState
	r := NewRunner(p, 0, func(st *ProcessorState) { got = append(got, st) })

	assert.Equal(t, p.Config().TickInterval, r.interval)

	st := r.Tick()
	r.Tick()
	require.Len(t, got, 2)
	assert.Same(t, st, got[0])
	assert.Equal(t, uint64(2), got[1].Seq)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	p := newTestProcessor(t, MonotonicClock{})

	ticks := make(chan uint64, 100)
	r := NewRunner(p, time.Millisecond, func(st *ProcessorState) {
		select {
		case ticks <- st.Seq:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case seq := <-ticks:
		assert.Equal(t, uint64(1), seq)
	case <-time.After(2 * time.Second):
		t.Fatal("runner never ticked")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
