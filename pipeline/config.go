package pipeline

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-coherence/edr"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/score"
	"github.com/RyanBlaney/sonido-coherence/smoothing"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid pipeline config")

// ScoreConfig selects the scoring profile and the breathing target
type ScoreConfig struct {
	Profile        score.Profile `json:"profile" yaml:"profile"`
	TargetCPM      float64       `json:"target_cpm" yaml:"target_cpm"`
	SmoothingAlpha float64       `json:"smoothing_alpha" yaml:"smoothing_alpha"` // EMA alpha of the displayed score
}

// Config is the full processor configuration
type Config struct {
	Window       hrv.WindowConfig   `json:"window" yaml:"window"`
	Cleaner      hrv.CleanerConfig  `json:"cleaner" yaml:"cleaner"`
	Spectral     hrv.SpectralConfig `json:"spectral" yaml:"spectral"`
	Respiration  edr.Config         `json:"respiration" yaml:"respiration"`
	Stabilizer   smoothing.Config   `json:"stabilizer" yaml:"stabilizer"`
	Score        ScoreConfig        `json:"score" yaml:"score"`
	TickInterval time.Duration      `json:"tick_interval" yaml:"tick_interval"`
}

// DefaultConfig returns the settings used by the live display
func DefaultConfig() Config {
	return Config{
		Window:      hrv.DefaultWindowConfig(),
		Cleaner:     hrv.DefaultCleanerConfig(),
		Spectral:    hrv.DefaultSpectralConfig(),
		Respiration: edr.DefaultConfig(),
		Stabilizer:  smoothing.DefaultConfig(),
		Score: ScoreConfig{
			Profile:        score.ProfileLive,
			TargetCPM:      6.0,
			SmoothingAlpha: 0.3,
		},
		TickInterval: 250 * time.Millisecond,
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks ranges and cross-field constraints
func (c Config) Validate() error {
	w := c.Window
	if w.MinRRMs <= 0 || w.MinRRMs >= w.MaxRRMs {
		return invalid("window bounds [%v, %v] ms", w.MinRRMs, w.MaxRRMs)
	}
	if w.MaxSamples < 4 {
		return invalid("window max_samples %d below 4", w.MaxSamples)
	}
	if w.MaxAge < 0 {
		return invalid("window max_age %v negative", w.MaxAge)
	}

	switch c.Cleaner.Strategy {
	case hrv.StrategyEctopic, hrv.StrategyMAD:
	default:
		return invalid("cleaner strategy %q", c.Cleaner.Strategy)
	}
	if c.Cleaner.EctopicTolerance <= 0 || c.Cleaner.MADThreshold <= 0 {
		return invalid("cleaner thresholds must be positive")
	}

	s := c.Spectral
	if s.SampleRate <= 0 {
		return invalid("spectral sample_rate %v", s.SampleRate)
	}
	if s.MinSegment < 2 || s.MaxSegment < s.MinSegment {
		return invalid("spectral segments [%d, %d]", s.MinSegment, s.MaxSegment)
	}

	r := c.Respiration
	if len(r.Estimators) == 0 {
		return invalid("no respiration estimators")
	}
	if r.SampleRate <= 0 || r.BandLow <= 0 || r.BandLow >= r.BandHigh || r.BandHigh >= r.SampleRate/2 {
		return invalid("respiration band [%v, %v] Hz at %v Hz", r.BandLow, r.BandHigh, r.SampleRate)
	}
	if r.MinRateCPM >= r.MaxRateCPM {
		return invalid("respiration rate range [%v, %v] cpm", r.MinRateCPM, r.MaxRateCPM)
	}
	if r.MaxSegment < 16 {
		return invalid("respiration max_segment %d below 16", r.MaxSegment)
	}
	if !unit(r.SpectralPeakQuality) || !unit(r.RSASmoothingAlpha) || r.RSAMaxJump < 0 {
		return invalid("respiration smoothing parameters")
	}

	st := c.Stabilizer
	if !unit(st.Alpha) || st.MaxRelativeStep < 0 || st.MaxRatePerSecond < 0 {
		return invalid("stabilizer alpha %v step %v rate %v", st.Alpha, st.MaxRelativeStep, st.MaxRatePerSecond)
	}

	if _, err := score.WeightsFor(c.Score.Profile); err != nil {
		return invalid("%v", err)
	}
	if c.Score.TargetCPM <= 0 || !unit(c.Score.SmoothingAlpha) {
		return invalid("score target %v smoothing %v", c.Score.TargetCPM, c.Score.SmoothingAlpha)
	}

	if c.TickInterval <= 0 {
		return invalid("tick_interval %v", c.TickInterval)
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
