package hrv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// Cleaner strategy names
const (
	StrategyEctopic = "ectopic"
	StrategyMAD     = "mad"
)

// CleanerConfig selects and tunes the artifact cleaner
type CleanerConfig struct {
	Strategy         string  `json:"strategy" yaml:"strategy"` // "ectopic" or "mad"
	MinRRMs          float64 `json:"min_rr_ms" yaml:"min_rr_ms"`
	MaxRRMs          float64 `json:"max_rr_ms" yaml:"max_rr_ms"`
	EctopicTolerance float64 `json:"ectopic_tolerance" yaml:"ectopic_tolerance"` // relative change vs previous accepted beat
	MADThreshold     float64 `json:"mad_threshold" yaml:"mad_threshold"`         // reject |modified z| above this
}

// DefaultCleanerConfig returns the ectopic strategy with the Malik 20% rule
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		Strategy:         StrategyEctopic,
		MinRRMs:          300,
		MaxRRMs:          2000,
		EctopicTolerance: 0.2,
		MADThreshold:     3.5,
	}
}

// Cleaner removes artifacts from a window of samples. Output order follows
// input order and each output value keeps the timestamp of the beat it
// replaces or retains.
type Cleaner interface {
	Clean(samples []Sample) []Sample
	Name() string
}

// NewCleaner returns the cleaner selected by config.Strategy
func NewCleaner(config CleanerConfig) (Cleaner, error) {
	switch config.Strategy {
	case StrategyEctopic, "":
		return NewEctopicCleaner(config), nil
	case StrategyMAD:
		return NewMADCleaner(config), nil
	default:
		return nil, fmt.Errorf("unknown cleaner strategy %q", config.Strategy)
	}
}

// boundsFilter keeps finite samples inside [minMs, maxMs]
func boundsFilter(samples []Sample, minMs, maxMs float64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Within(minMs, maxMs) {
			out = append(out, s)
		}
	}
	return out
}

// EctopicCleaner applies hard bounds, flags ectopic beats with the Malik rule
// (successive change above 20%) and replaces them by linear interpolation between the surrounding accepted
// beats. Flagged beats before the first or after the last accepted beat are
// dropped.
type EctopicCleaner struct {
	config CleanerConfig
}

// NewEctopicCleaner creates an ectopic-beat cleaner
func NewEctopicCleaner(config CleanerConfig) *EctopicCleaner {
	return &EctopicCleaner{config: config}
}

func (c *EctopicCleaner) Name() string {
	return StrategyEctopic
}

// Clean implements Cleaner
func (c *EctopicCleaner) Clean(samples []Sample) []Sample {
	kept := boundsFilter(samples, c.config.MinRRMs, c.config.MaxRRMs)
	if len(kept) < 2 {
		return kept
	}

	// Malik: beat i+1 is ectopic when it differs from beat i by more than
	// tolerance*beat i. A flagged beat is never used as a reference, so the
	// beat after it is accepted without comparison.
	ectopic := make([]bool, len(kept))
	for i := 0; i < len(kept)-1; i++ {
		cur, next := kept[i].IntervalMs, kept[i+1].IntervalMs
		if math.Abs(next-cur) > c.config.EctopicTolerance*cur {
			ectopic[i+1] = true
			i++
		}
	}

	var x, y []float64
	for i, s := range kept {
		if !ectopic[i] {
			x = append(x, float64(i))
			y = append(y, s.IntervalMs)
		}
	}
	if len(x) == len(kept) {
		return kept
	}

	out := make([]Sample, 0, len(kept))
	var pl interp.PiecewiseLinear
	if len(x) < 2 || pl.Fit(x, y) != nil {
		for i, s := range kept {
			if !ectopic[i] {
				out = append(out, s)
			}
		}
		return out
	}

	first, last := x[0], x[len(x)-1]
	for i, s := range kept {
		if !ectopic[i] {
			out = append(out, s)
			continue
		}
		pos := float64(i)
		if pos < first || pos > last {
			continue
		}
		v := pl.Predict(pos)
		if common.IsFinite(v) {
			out = append(out, Sample{Timestamp: s.Timestamp, IntervalMs: v})
		}
	}

	return out
}

// MADCleaner applies hard bounds then rejects samples whose modified z-score
// 0.6745*(x-median)/MAD exceeds the threshold. Fewer than four samples after
// the bounds filter are returned without further filtering.
type MADCleaner struct {
	config CleanerConfig
}

// NewMADCleaner creates a median absolute deviation cleaner
func NewMADCleaner(config CleanerConfig) *MADCleaner {
	return &MADCleaner{config: config}
}

func (c *MADCleaner) Name() string {
	return StrategyMAD
}

// Clean implements Cleaner
func (c *MADCleaner) Clean(samples []Sample) []Sample {
	kept := boundsFilter(samples, c.config.MinRRMs, c.config.MaxRRMs)
	if len(kept) < 4 {
		return kept
	}

	mad, median := common.MedianAbsoluteDeviation(Intervals(kept))
	if mad == 0 {
		mad = 1.0
	}

	out := make([]Sample, 0, len(kept))
	for _, s := range kept {
		z := 0.6745 * (s.IntervalMs - median) / mad
		if math.Abs(z) <= c.config.MADThreshold {
			out = append(out, s)
		}
	}
	return out
}
