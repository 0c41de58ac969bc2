package hrv

import (
	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/algorithms/spectral"
	"github.com/RyanBlaney/sonido-coherence/logging"
)

// MinSpectralSamples is the smallest window the spectral analyzer accepts
const MinSpectralSamples = 10

// SpectralConfig tunes resampling and the PSD estimate
type SpectralConfig struct {
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"` // Hz
	MaxSegment int     `json:"max_segment" yaml:"max_segment"`
	MinSegment int     `json:"min_segment" yaml:"min_segment"`
}

// DefaultSpectralConfig resamples at 4 Hz with segments of 16 to 256 samples
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		SampleRate: 4.0,
		MaxSegment: 256,
		MinSegment: 16,
	}
}

// SpectralResult is the frequency-domain view of an RR window. Freq and Power
// always have the same length; both are empty for the zero result.
type SpectralResult struct {
	Freq   []float64 `json:"freq"`
	Power  []float64 `json:"power"`
	LF     float64   `json:"lf"`
	HF     float64   `json:"hf"`
	Ratio  float64   `json:"ratio"` // LF/HF, zero when HF is negligible
	PeakHF float64   `json:"peak_hf"`
}

// Valid reports whether the result carries a spectrum
func (r SpectralResult) Valid() bool {
	return len(r.Freq) > 0
}

// HFFraction returns hf/(lf+hf) clamped to [0, 1]
func (r SpectralResult) HFFraction() float64 {
	total := r.LF + r.HF
	if total <= common.Epsilon {
		return 0.0
	}
	return common.Clamp01(r.HF / total)
}

// SpectralAnalyzer computes LF/HF band power from RR intervals
type SpectralAnalyzer struct {
	config SpectralConfig
	welch  *spectral.Welch
	logger logging.Logger
}

// NewSpectralAnalyzer creates an analyzer
func NewSpectralAnalyzer(config SpectralConfig) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		config: config,
		welch:  spectral.NewWelch(config.SampleRate, config.MaxSegment, config.MinSegment),
		logger: logging.WithFields(logging.Fields{"component": "hrv_spectral"}),
	}
}

// Analyze resamples rr onto a uniform grid, removes the linear trend and
// estimates the PSD. Windows shorter than MinSpectralSamples, degenerate time
// axes and segments below the minimum length produce the zero result.
func (a *SpectralAnalyzer) Analyze(rrMs, timestamps []float64) SpectralResult {
	if len(rrMs) < MinSpectralSamples {
		return SpectralResult{}
	}

	rrSec := make([]float64, len(rrMs))
	for i, rr := range rrMs {
		rrSec[i] = rr / 1000.0
	}

	t := TimeAxis(rrMs, timestamps)
	_, uniform, err := common.UniformResample(t, rrSec, a.config.SampleRate)
	if err != nil {
		a.logger.Debug("resample failed", logging.Fields{"error": err.Error(), "samples": len(rrMs)})
		return SpectralResult{}
	}

	psd, err := a.welch.Compute(common.LinearDetrend(uniform))
	if err != nil {
		a.logger.Debug("psd failed", logging.Fields{"error": err.Error(), "uniform": len(uniform)})
		return SpectralResult{}
	}

	result := SpectralResult{
		Freq:  psd.Freq,
		Power: psd.Power,
		LF:    common.SafeFloat(spectral.LFBand.Power(psd.Freq, psd.Power), 0),
		HF:    common.SafeFloat(spectral.HFBand.Power(psd.Freq, psd.Power), 0),
	}
	if result.LF < 0 {
		result.LF = 0
	}
	if result.HF < 0 {
		result.HF = 0
	}
	if result.HF > common.Epsilon {
		result.Ratio = result.LF / result.HF
	}
	if peak, ok := spectral.HFBand.Peak(psd.Freq, psd.Power); ok {
		result.PeakHF = peak.Frequency
	}

	return result
}
