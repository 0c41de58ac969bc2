package hrv

import (
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// WindowConfig bounds the RR window
type WindowConfig struct {
	MinRRMs    float64       `json:"min_rr_ms" yaml:"min_rr_ms"`
	MaxRRMs    float64       `json:"max_rr_ms" yaml:"max_rr_ms"`
	MaxSamples int           `json:"max_samples" yaml:"max_samples"`
	MaxAge     time.Duration `json:"max_age" yaml:"max_age"` // zero disables the age bound
}

// DefaultWindowConfig returns the plausibility bounds 300-2000 ms with the
// last 300 beats or 300 s retained
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		MinRRMs:    300,
		MaxRRMs:    2000,
		MaxSamples: 300,
		MaxAge:     300 * time.Second,
	}
}

// Window is a bounded, ordered buffer of recent RR samples. Producers append
// with Push; analysis works on copies taken with Snapshot. All methods are
// safe for concurrent use.
type Window struct {
	mu      sync.Mutex
	samples *common.Ring[Sample]
	config  WindowConfig

	dropped uint64
}

// NewWindow creates an empty window
func NewWindow(config WindowConfig) *Window {
	return &Window{
		samples: common.NewRing[Sample](config.MaxSamples),
		config:  config,
	}
}

// Push appends a sample. Intervals that are non-positive, non-finite or
// outside the plausibility bounds are discarded, as are samples older than
// the newest one held. It reports whether the sample was kept.
func (w *Window) Push(intervalMs, timestamp float64) bool {
	s := Sample{Timestamp: timestamp, IntervalMs: intervalMs}
	if !s.Within(w.config.MinRRMs, w.config.MaxRRMs) || !common.IsFinite(timestamp) {
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if last, ok := w.samples.Back(); ok && timestamp < last.Timestamp {
		w.dropped++
		return false
	}

	w.samples.Push(s)
	w.evictExpired(timestamp)
	return true
}

// evictExpired drops samples older than MaxAge relative to now. Caller holds mu.
func (w *Window) evictExpired(now float64) {
	if w.config.MaxAge <= 0 {
		return
	}

	cutoff := now - w.config.MaxAge.Seconds()
	for {
		front, ok := w.samples.Front()
		if !ok || front.Timestamp >= cutoff {
			return
		}
		w.samples.PopFront()
	}
}

// Snapshot returns a copy of the window, oldest first
func (w *Window) Snapshot() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples.Snapshot()
}

// Since returns the samples with a timestamp at or after t
func (w *Window) Since(t float64) []Sample {
	all := w.Snapshot()
	for i, s := range all {
		if s.Timestamp >= t {
			return all[i:]
		}
	}
	return []Sample{}
}

// Last returns the newest sample
func (w *Window) Last() (Sample, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples.Back()
}

// Len returns the number of buffered samples
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples.Len()
}

// Dropped returns how many pushes were rejected since creation
func (w *Window) Dropped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Reset empties the window
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples.Clear()
}
