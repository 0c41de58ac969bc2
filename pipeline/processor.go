// Package pipeline turns a stream of RR intervals into coherence state. A
// Processor owns the RR window and every piece of memory carried between
// ticks; each call to Compute recomputes the state from a snapshot of the
// window.
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-coherence/edr"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/score"
	"github.com/RyanBlaney/sonido-coherence/smoothing"
)

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithClock sets the clock used to stamp states and drive rate limiting
func WithClock(clock Clock) ProcessorOption {
	return func(p *Processor) {
		p.clock = clock
	}
}

// WithLogger sets the base logger
func WithLogger(logger logging.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithID overrides the generated processor id
func WithID(id uuid.UUID) ProcessorOption {
	return func(p *Processor) {
		p.id = id
	}
}

// Processor is one coherence pipeline instance. Push may be called from any
// goroutine; Compute calls are serialized.
type Processor struct {
	id     uuid.UUID
	config Config
	clock  Clock
	logger logging.Logger

	window     *hrv.Window
	cleaner    hrv.Cleaner
	spectral   *hrv.SpectralAnalyzer
	estimators []edr.Estimator
	scorer     *score.Scorer

	mu          sync.Mutex // serializes Compute and owns the stabilizers
	respiration *smoothing.Stabilizer
	smoothed    *smoothing.Stabilizer
	seq         uint64

	latest atomic.Pointer[ProcessorState]
}

// NewProcessor validates config and builds a processor
func NewProcessor(config Config, opts ...ProcessorOption) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cleaner, err := hrv.NewCleaner(config.Cleaner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	estimators, err := edr.NewEstimators(config.Respiration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	scorer, err := score.NewScorer(config.Score.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	p := &Processor{
		id:          uuid.New(),
		config:      config,
		clock:       MonotonicClock{},
		logger:      logging.GetGlobalLogger(),
		window:      hrv.NewWindow(config.Window),
		cleaner:     cleaner,
		spectral:    hrv.NewSpectralAnalyzer(config.Spectral),
		estimators:  estimators,
		scorer:      scorer,
		respiration: smoothing.NewStabilizer(config.Stabilizer),
		smoothed:    smoothing.NewStabilizer(smoothing.Config{Alpha: config.Score.SmoothingAlpha}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.WithFields(logging.Fields{
		"component":    "processor",
		"processor_id": p.id.String(),
	})
	p.logger.Debug("processor created", logging.Fields{
		"cleaner":    p.cleaner.Name(),
		"estimators": len(p.estimators),
		"profile":    string(p.scorer.Profile()),
	})

	return p, nil
}

// ID returns the processor id
func (p *Processor) ID() uuid.UUID {
	return p.id
}

// Config returns the configuration the processor was built with
func (p *Processor) Config() Config {
	return p.config
}

// Push offers one RR interval. Implausible or out-of-order samples are
// dropped silently; the result only reports whether the sample was kept.
func (p *Processor) Push(intervalMs, timestamp float64) bool {
	return p.window.Push(intervalMs, timestamp)
}

// PushSample is Push for a decoded sample
func (p *Processor) PushSample(s hrv.Sample) bool {
	return p.window.Push(s.IntervalMs, s.Timestamp)
}

// Window exposes the RR window for read access
func (p *Processor) Window() *hrv.Window {
	return p.window
}

// Latest returns the most recent state, nil before the first Compute
func (p *Processor) Latest() *ProcessorState {
	return p.latest.Load()
}

// RespirationTarget returns the stabilized breathing rate of the latest
// state together with its respiration sub-score
func (p *Processor) RespirationTarget() Target {
	st := p.latest.Load()
	if st == nil {
		return Target{}
	}
	return Target{
		RateCPM:   st.Respiration.RateCPM,
		Valid:     st.Respiration.Valid,
		Component: st.Components.Respiration,
	}
}

// Reset empties the window and clears every carried memory
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.window.Reset()
	for _, e := range p.estimators {
		e.Reset()
	}
	p.respiration.Reset()
	p.smoothed.Reset()
	p.latest.Store(nil)

	p.logger.Debug("processor reset")
}

// Compute runs one tick over a snapshot of the window and publishes the
// resulting state. It never fails: stages without enough data report their
// zero or absent values.
func (p *Processor) Compute() (state *ProcessorState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.seq++
	seq := p.seq

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("%v", r), "compute panicked, publishing empty state", logging.Fields{"seq": seq})
			state = p.emptyState(seq, now, nil)
			p.latest.Store(state)
		}
	}()

	state = p.compute(seq, now)
	p.latest.Store(state)
	return state
}

func (p *Processor) emptyState(seq uint64, now time.Time, rr []hrv.Sample) *ProcessorState {
	return &ProcessorState{
		ProcessorID: p.id.String(),
		Seq:         seq,
		ComputedAt:  now,
		RR:          rr,
		Grades:      grades(hrv.TimeDomain{}, 0, 0),
	}
}

func (p *Processor) compute(seq uint64, now time.Time) *ProcessorState {
	snapshot := p.window.Snapshot()
	cleaned := p.cleaner.Clean(snapshot)

	if len(cleaned) < MinTrivialSamples {
		st := p.emptyState(seq, now, snapshot)
		st.Cleaned = len(cleaned)
		st.Score = p.smoothed.Update(0, now)
		st.Grades.Score = score.Grade(score.MetricScore, st.Score)
		return st
	}

	rr := hrv.Intervals(cleaned)
	ts := hrv.Timestamps(cleaned)

	td := hrv.AnalyzeTimeDomain(rr)
	freq := p.spectral.Analyze(rr, ts)

	// Estimators always run so that their own memories see every tick
	candidates := make([]edr.Estimate, 0, len(p.estimators))
	for _, e := range p.estimators {
		candidates = append(candidates, e.Estimate(rr, ts))
	}
	fused := edr.FuseEstimates(candidates)

	resp := Respiration{
		Quality:  fused.Quality,
		Waveform: fused.Waveform,
		Sources:  fused.Sources,
	}
	if fused.Valid {
		resp.RateCPM = p.respiration.Update(fused.RateCPM, now)
		resp.Valid = resp.RateCPM > 0
	}

	raw, components := p.scorer.Score(score.Inputs{
		RMSSD:     td.RMSSD,
		SDNN:      td.SDNN,
		LF:        freq.LF,
		HF:        freq.HF,
		Ratio:     freq.Ratio,
		RespHz:    resp.Hz(),
		RespValid: resp.Valid,
	})
	smoothed := p.smoothed.Update(raw, now)

	if !freq.Valid() {
		p.logger.Debug("spectral stage degraded", logging.Fields{"seq": seq, "samples": len(rr)})
	}
	if len(rr) >= MinRespirationSamples && !fused.Valid {
		p.logger.Debug("no respiration estimate", logging.Fields{"seq": seq, "samples": len(rr)})
	}

	return &ProcessorState{
		ProcessorID: p.id.String(),
		Seq:         seq,
		ComputedAt:  now,
		RR:          snapshot,
		Cleaned:     len(cleaned),
		TimeDomain:  td,
		Spectral:    freq,
		Candidates:  candidates,
		Respiration: resp,
		Score:       smoothed,
		RawScore:    raw,
		Components:  components,
		Sync:        score.Sync(rr, resp.RateCPM, resp.Valid, resp.Quality, p.config.Score.TargetCPM),
		Grades:      grades(td, freq.Ratio, smoothed),
	}
}

func grades(td hrv.TimeDomain, ratio, composite float64) Grades {
	return Grades{
		SDNN:  score.Grade(score.MetricSDNN, td.SDNN),
		RMSSD: score.Grade(score.MetricRMSSD, td.RMSSD),
		LFHF:  score.Grade(score.MetricLFHF, ratio),
		Score: score.Grade(score.MetricScore, composite),
	}
}
