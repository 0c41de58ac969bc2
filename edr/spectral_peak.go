package edr

import (
	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/logging"
)

// SpectralPeakEstimator takes the strongest frequency of the resampled RR
// series inside the respiration band. It carries no confidence measure of its
// own and reports a fixed quality.
type SpectralPeakEstimator struct {
	config Config
	logger logging.Logger
}

// NewSpectralPeakEstimator creates the estimator
func NewSpectralPeakEstimator(config Config) *SpectralPeakEstimator {
	return &SpectralPeakEstimator{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "edr", "method": MethodSpectralPeak}),
	}
}

func (e *SpectralPeakEstimator) Name() string {
	return MethodSpectralPeak
}

// Reset is a no-op, the estimator is stateless
func (e *SpectralPeakEstimator) Reset() {}

// Estimate implements Estimator
func (e *SpectralPeakEstimator) Estimate(rrMs, timestamps []float64) Estimate {
	if len(rrMs) < MinSamples {
		return absent(MethodSpectralPeak)
	}

	rs, err := resampleRR(rrMs, timestamps, e.config.SampleRate)
	if err != nil {
		e.logger.Debug("resample failed", logging.Fields{"error": err.Error()})
		return absent(MethodSpectralPeak)
	}

	peak, err := findBandPeak(common.RemoveMean(rs.values), e.config, respirationBand(e.config))
	if err != nil {
		e.logger.Debug("no peak", logging.Fields{"error": err.Error()})
		return absent(MethodSpectralPeak)
	}

	cpm := peak.Frequency * 60.0
	if cpm < e.config.MinRateCPM || cpm > e.config.MaxRateCPM {
		e.logger.Debug("rate outside plausible range", logging.Fields{"cpm": cpm})
		return absent(MethodSpectralPeak)
	}

	return Estimate{
		Method:   MethodSpectralPeak,
		RateCPM:  cpm,
		Valid:    true,
		Quality:  common.Clamp01(e.config.SpectralPeakQuality),
		Waveform: Sinus(cpm, e.config.WaveformSeconds, e.config.SinusPoints),
	}
}
