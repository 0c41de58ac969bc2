// Package edr estimates respiration rate from beat-to-beat intervals by
// exploiting respiratory sinus arrhythmia.
package edr

import (
	"fmt"
)

// Estimator names
const (
	MethodSpectralPeak = "spectral_peak"
	MethodRSA          = "rsa"
	MethodDetrend      = "detrend"
)

const (
	// MinSamples is the number of RR intervals an estimator needs
	MinSamples = 30
	// MinUniformSamples is the resampled length an estimator needs
	MinUniformSamples = 64
)

// Waveform is a display trace normalised to [0, 1]. Time is in seconds
// relative to the newest sample, so it runs from about -20 to 0.
type Waveform struct {
	Time      []float64 `json:"time"`
	Amplitude []float64 `json:"amplitude"`
}

// Len returns the number of points
func (w *Waveform) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Time)
}

// Estimate is one technique's view of the respiration rate. When Valid is
// false the technique produced nothing and RateCPM carries no meaning.
type Estimate struct {
	Method   string    `json:"method"`
	RateCPM  float64   `json:"rate_cpm"`
	Valid    bool      `json:"valid"`
	Quality  float64   `json:"quality"` // [0, 1]
	Waveform *Waveform `json:"waveform,omitempty"`
}

// Hz returns the rate in Hz, zero when absent
func (e Estimate) Hz() float64 {
	if !e.Valid {
		return 0
	}
	return e.RateCPM / 60.0
}

func absent(method string) Estimate {
	return Estimate{Method: method}
}

// Estimator produces a respiration estimate from RR intervals in milliseconds
// and their timestamps in seconds. Implementations are not safe for
// concurrent use.
type Estimator interface {
	Estimate(rrMs, timestamps []float64) Estimate
	Name() string
	Reset()
}

// Config tunes the estimators
type Config struct {
	Estimators          []string `json:"estimators" yaml:"estimators"`
	SampleRate          float64  `json:"sample_rate" yaml:"sample_rate"`
	BandLow             float64  `json:"band_low" yaml:"band_low"`
	BandHigh            float64  `json:"band_high" yaml:"band_high"`
	MinRateCPM          float64  `json:"min_rate_cpm" yaml:"min_rate_cpm"`
	MaxRateCPM          float64  `json:"max_rate_cpm" yaml:"max_rate_cpm"`
	MaxSegment          int      `json:"max_segment" yaml:"max_segment"`
	WaveformSeconds     float64  `json:"waveform_seconds" yaml:"waveform_seconds"`
	SinusPoints         int      `json:"sinus_points" yaml:"sinus_points"`
	SpectralPeakQuality float64  `json:"spectral_peak_quality" yaml:"spectral_peak_quality"`
	RSASmoothingAlpha   float64  `json:"rsa_smoothing_alpha" yaml:"rsa_smoothing_alpha"`
	RSAMaxJump          float64  `json:"rsa_max_jump" yaml:"rsa_max_jump"`
}

// DefaultConfig enables all three estimators over the 0.07-0.40 Hz band
func DefaultConfig() Config {
	return Config{
		Estimators:          []string{MethodSpectralPeak, MethodRSA, MethodDetrend},
		SampleRate:          4.0,
		BandLow:             0.07,
		BandHigh:            0.40,
		MinRateCPM:          4.0,
		MaxRateCPM:          20.0,
		MaxSegment:          256,
		WaveformSeconds:     20.0,
		SinusPoints:         400,
		SpectralPeakQuality: 0.3,
		RSASmoothingAlpha:   0.2,
		RSAMaxJump:          0.25,
	}
}

// NewEstimators builds the estimators named in config.Estimators, in order
func NewEstimators(config Config) ([]Estimator, error) {
	out := make([]Estimator, 0, len(config.Estimators))
	seen := make(map[string]bool)
	for _, name := range config.Estimators {
		if seen[name] {
			return nil, fmt.Errorf("estimator %q listed twice", name)
		}
		seen[name] = true

		switch name {
		case MethodSpectralPeak:
			out = append(out, NewSpectralPeakEstimator(config))
		case MethodRSA:
			out = append(out, NewRSAEstimator(config))
		case MethodDetrend:
			out = append(out, NewDetrendEstimator(config))
		default:
			return nil, fmt.Errorf("unknown estimator %q", name)
		}
	}
	return out, nil
}
