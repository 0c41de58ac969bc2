package edr

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
	"github.com/RyanBlaney/sonido-coherence/algorithms/filters"
	"github.com/RyanBlaney/sonido-coherence/algorithms/spectral"
	"github.com/RyanBlaney/sonido-coherence/hrv"
)

var (
	errTooFewUniform = errors.New("too few resampled points")
	errNoPeak        = errors.New("no spectral peak in band")
)

// resampled is an RR series on a uniform grid, in seconds
type resampled struct {
	grid   []float64
	values []float64
}

// resampleRR interpolates rr onto a uniform grid at fs. The grid starts at the
// first beat and stops before the last one.
func resampleRR(rrMs, timestamps []float64, fs float64) (*resampled, error) {
	rrSec := make([]float64, len(rrMs))
	for i, rr := range rrMs {
		rrSec[i] = rr / 1000.0
	}

	grid, values, err := common.UniformResample(hrv.TimeAxis(rrMs, timestamps), rrSec, fs)
	if err != nil {
		return nil, err
	}
	if len(values) < MinUniformSamples {
		return nil, fmt.Errorf("%w: %d < %d", errTooFewUniform, len(values), MinUniformSamples)
	}
	return &resampled{grid: grid, values: values}, nil
}

// bandPeak is the dominant respiration peak of a PSD
type bandPeak struct {
	spectral.Peak
	SNR float64 // peak density over median in-band density
}

// findBandPeak estimates the PSD of signal and locates its maximum inside band,
// refined by parabolic interpolation
func findBandPeak(signal []float64, config Config, band spectral.Band) (bandPeak, error) {
	welch := spectral.NewWelch(config.SampleRate, config.MaxSegment, 16)
	psd, err := welch.Compute(signal)
	if err != nil {
		return bandPeak{}, err
	}

	peak, ok := band.Peak(psd.Freq, psd.Power)
	if !ok || peak.Power <= common.Epsilon || !common.IsFinite(peak.Power) {
		return bandPeak{}, errNoPeak
	}

	median := max(band.Median(psd.Freq, psd.Power), common.Epsilon)
	refined := spectral.RefinePeak(psd.Freq, psd.Power, peak)

	return bandPeak{Peak: refined, SNR: peak.Power / median}, nil
}

// qualityFromSNR maps an SNR of 1 to quality 0 and 5 or more to quality 1
func qualityFromSNR(snr float64) float64 {
	return common.Clamp01((snr - 1.0) / 4.0)
}

// derivativeResult is the output of the RSA-derivative chain
type derivativeResult struct {
	peak     bandPeak
	filtered []float64
}

// analyzeDerivative differentiates signal, band-passes it with a zero-phase
// Butterworth filter and locates the in-band spectral peak
func analyzeDerivative(signal []float64, config Config) (*derivativeResult, error) {
	dy := common.Gradient(signal)

	filtered, err := filters.BandpassZeroPhase(dy, config.SampleRate, config.BandLow, config.BandHigh)
	if err != nil {
		return nil, fmt.Errorf("band-pass: %w", err)
	}

	peak, err := findBandPeak(filtered, config, respirationBand(config))
	if err != nil {
		return nil, err
	}

	return &derivativeResult{peak: peak, filtered: filtered}, nil
}

func respirationBand(config Config) spectral.Band {
	return spectral.Band{Low: config.BandLow, High: config.BandHigh, Closed: true}
}
