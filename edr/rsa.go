package edr

import (
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/smoothing"
)

// RSAEstimator recovers the respiration rate from the derivative of the
// resampled RR series after a zero-phase band-pass. Its running rate is
// clipped and smoothed before being reported, so it holds state across calls.
type RSAEstimator struct {
	config Config
	ema    *smoothing.EMA
	jump   smoothing.AntiJump
	logger logging.Logger
}

// NewRSAEstimator creates the estimator with empty smoothing memory
func NewRSAEstimator(config Config) *RSAEstimator {
	return &RSAEstimator{
		config: config,
		ema:    smoothing.NewEMA(config.RSASmoothingAlpha),
		jump:   smoothing.NewAntiJump(config.RSAMaxJump),
		logger: logging.WithFields(logging.Fields{"component": "edr", "method": MethodRSA}),
	}
}

func (e *RSAEstimator) Name() string {
	return MethodRSA
}

// Reset forgets the running rate
func (e *RSAEstimator) Reset() {
	e.ema.Reset()
}

// Estimate implements Estimator. A failed stage returns an absent estimate
// and leaves the running rate untouched.
func (e *RSAEstimator) Estimate(rrMs, timestamps []float64) Estimate {
	if len(rrMs) < MinSamples {
		return absent(MethodRSA)
	}

	rs, err := resampleRR(rrMs, timestamps, e.config.SampleRate)
	if err != nil {
		e.logger.Debug("resample failed", logging.Fields{"error": err.Error()})
		return absent(MethodRSA)
	}

	res, err := analyzeDerivative(rs.values, e.config)
	if err != nil {
		e.logger.Debug("derivative analysis failed", logging.Fields{"error": err.Error()})
		return absent(MethodRSA)
	}

	cpm := res.peak.Frequency * 60.0
	if ref, ok := e.ema.Value(); ok {
		cpm = e.jump.Apply(cpm, ref)
	}
	cpm = e.ema.Push(cpm)

	return Estimate{
		Method:   MethodRSA,
		RateCPM:  cpm,
		Valid:    true,
		Quality:  qualityFromSNR(res.peak.SNR),
		Waveform: DisplayWaveform(rs.grid, res.filtered, e.config.WaveformSeconds),
	}
}

// Rate returns the running smoothed rate
func (e *RSAEstimator) Rate() (float64, bool) {
	return e.ema.Value()
}
