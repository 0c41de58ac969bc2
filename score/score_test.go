package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormRatio(t *testing.T) {
	assert.Equal(t, 1.0, NormRatio(1, 1, 1))
	assert.InDelta(t, 0.5, NormRatio(1, 1, math.Sqrt(10)), 1e-12)
	assert.InDelta(t, 0.5, NormRatio(1, 1, 1/math.Sqrt(10)), 1e-12)
	assert.Equal(t, 0.0, NormRatio(1, 1, 100))
	assert.Equal(t, 0.0, NormRatio(0, 1, 0))
	assert.Equal(t, 0.0, NormRatio(1, 0, 0))
	assert.Equal(t, 0.0, NormRatio(1, 1, math.NaN()))
}

func TestNormalizers_Clamp(t *testing.T) {
	assert.Equal(t, 0.5, NormRMSSD(40))
	assert.Equal(t, 1.0, NormRMSSD(400))
	assert.Equal(t, 0.0, NormRMSSD(-3))
	assert.Equal(t, 0.0, NormRMSSD(math.NaN()))
	assert.Equal(t, 0.5, NormSDNN(50))
	assert.Equal(t, 0.75, NormHFFraction(1, 3))
	assert.Equal(t, 0.0, NormHFFraction(0, 0))
}

func TestNormRespiration(t *testing.T) {
	assert.Equal(t, 1.0, NormRespiration(0.10, true))
	assert.InDelta(t, 0.5, NormRespiration(0.125, true), 1e-12)
	assert.Equal(t, 0.0, NormRespiration(0.2, true))
	assert.Equal(t, 0.0, NormRespiration(0.10, false))
}

func TestWeightsSumToOne(t *testing.T) {
	for _, p := range []Profile{ProfileLive, ProfilePremium} {
		w, err := WeightsFor(p)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w.Ratio+w.RMSSD+w.Respiration+w.HFFraction, 1e-12, string(p))
	}

	_, err := NewScorer("deluxe")
	assert.Error(t, err)
}

func TestScorer_LiveWeighting(t *testing.T) {
	s, err := NewScorer(ProfileLive)
	require.NoError(t, err)

	got := s.Combine(Components{Ratio: 1, RMSSD: 0.5, Respiration: 0, HFFraction: 1})
	assert.InDelta(t, 100*(0.4+0.15), got, 1e-9)
}

func TestScorer_PremiumWeighting(t *testing.T) {
	s, err := NewScorer(ProfilePremium)
	require.NoError(t, err)

	got := s.Combine(Components{Ratio: 0.5, RMSSD: 1, Respiration: 1, HFFraction: 0.5})
	assert.InDelta(t, 100*(0.2+0.15+0.2+0.1), got, 1e-9)
}

func TestScorer_BoundedForAnyFiniteInputs(t *testing.T) {
	values := []float64{0, 1e-9, 0.5, 3, 80, 1e6, -5}
	for _, p := range []Profile{ProfileLive, ProfilePremium} {
		s, err := NewScorer(p)
		require.NoError(t, err)

		for _, rmssd := range values {
			for _, lf := range values {
				for _, hf := range values {
					ratio := 0.0
					if hf != 0 {
						ratio = lf / hf
					}
					score, _ := s.Score(Inputs{RMSSD: rmssd, LF: lf, HF: hf, Ratio: ratio, RespHz: 0.1, RespValid: true})
					assert.GreaterOrEqual(t, score, 0.0)
					assert.LessOrEqual(t, score, 100.0)
				}
			}
		}

		score, _ := s.Score(Inputs{RMSSD: math.NaN(), LF: math.Inf(1), HF: 1, Ratio: math.Inf(1)})
		assert.False(t, math.IsNaN(score))
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestScorer_MonotonicInRMSSD(t *testing.T) {
	for _, p := range []Profile{ProfileLive, ProfilePremium} {
		s, err := NewScorer(p)
		require.NoError(t, err)

		prev := -1.0
		for rmssd := 0.0; rmssd <= 120; rmssd += 5 {
			score, _ := s.Score(Inputs{RMSSD: rmssd, LF: 2, HF: 1, Ratio: 2, RespHz: 0.11, RespValid: true})
			assert.GreaterOrEqual(t, score, prev)
			prev = score
		}
	}
}

func TestScorer_ConstantSeriesScoresRatioZero(t *testing.T) {
	s, err := NewScorer(ProfileLive)
	require.NoError(t, err)

	score, c := s.Score(Inputs{})
	assert.Equal(t, 0.0, c.Ratio)
	assert.Equal(t, 0.0, score)
}

func TestSync(t *testing.T) {
	rr := make([]float64, 20)
	for i := range rr {
		rr[i] = 800
	}

	// Target rate, perfectly stable, full quality
	assert.InDelta(t, 100.0, Sync(rr, 6, true, 1, 6), 1e-9)
	// Double the target: no frequency match
	assert.InDelta(t, 50.0, Sync(rr, 12, true, 1, 6), 1e-9)

	assert.Equal(t, 0.0, Sync(rr[:9], 6, true, 1, 6))
	assert.Equal(t, 0.0, Sync(rr, 6, false, 1, 6))
	assert.Equal(t, 0.0, Sync(rr, 0, true, 1, 6))
}

func TestSync_UnstableRR(t *testing.T) {
	rr := make([]float64, 20)
	for i := range rr {
		if i%2 == 0 {
			rr[i] = 600
		} else {
			rr[i] = 1000
		}
	}

	// std 200 = 25% of mean 800, stability 0
	assert.InDelta(t, 50.0, Sync(rr, 6, true, 0, 6), 1e-9)
}

func TestGrade(t *testing.T) {
	assert.Equal(t, LevelLow, Grade(MetricSDNN, 20))
	assert.Equal(t, LevelFair, Grade(MetricSDNN, 45))
	assert.Equal(t, LevelGood, Grade(MetricSDNN, 60))
	assert.Equal(t, LevelFair, Grade(MetricRMSSD, 30))
	assert.Equal(t, LevelGood, Grade(MetricScore, 85))
	assert.Equal(t, LevelLow, Grade(MetricLFHF, 0.3))
	assert.Equal(t, LevelFair, Grade(MetricLFHF, 1.0))
	assert.Equal(t, LevelGood, Grade(MetricLFHF, 1.7))
	assert.Equal(t, LevelFair, Grade(MetricLFHF, 2.5))
	assert.Equal(t, LevelLow, Grade(MetricLFHF, 3.5))
}
