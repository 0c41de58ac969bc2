package edr

import (
	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/logging"
)

// DetrendEstimator runs the RSA-derivative chain on the linearly detrended
// series and keeps no memory between calls. Rates outside the plausible range
// are rejected.
type DetrendEstimator struct {
	config Config
	logger logging.Logger
}

// NewDetrendEstimator creates the estimator
func NewDetrendEstimator(config Config) *DetrendEstimator {
	return &DetrendEstimator{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "edr", "method": MethodDetrend}),
	}
}

func (e *DetrendEstimator) Name() string {
	return MethodDetrend
}

// Reset is a no-op, the estimator is stateless
func (e *DetrendEstimator) Reset() {}

// Estimate implements Estimator
func (e *DetrendEstimator) Estimate(rrMs, timestamps []float64) Estimate {
	if len(rrMs) < MinSamples {
		return absent(MethodDetrend)
	}

	rs, err := resampleRR(rrMs, timestamps, e.config.SampleRate)
	if err != nil {
		e.logger.Debug("resample failed", logging.Fields{"error": err.Error()})
		return absent(MethodDetrend)
	}

	res, err := analyzeDerivative(common.LinearDetrend(rs.values), e.config)
	if err != nil {
		e.logger.Debug("derivative analysis failed", logging.Fields{"error": err.Error()})
		return absent(MethodDetrend)
	}

	cpm := res.peak.Frequency * 60.0
	if cpm < e.config.MinRateCPM || cpm > e.config.MaxRateCPM {
		e.logger.Debug("rate outside plausible range", logging.Fields{"cpm": cpm})
		return absent(MethodDetrend)
	}

	return Estimate{
		Method:   MethodDetrend,
		RateCPM:  cpm,
		Valid:    true,
		Quality:  qualityFromSNR(res.peak.SNR),
		Waveform: DisplayWaveform(rs.grid, res.filtered, e.config.WaveformSeconds),
	}
}
