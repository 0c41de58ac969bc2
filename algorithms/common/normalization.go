package common

// FlatSpread is the population standard deviation under which a signal is
// considered constant for display normalization.
const FlatSpread = 1e-6

// CenteredUnit maps a signal into [0, 1] for display: the mean is removed, the
// result is scaled by 1/(2*std) and offset by 0.5, then clipped. A near-constant
// signal yields a flat 0.5 line.
func CenteredUnit(signal []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 {
		return out
	}

	std := PopStandardDeviation(signal)
	if std < FlatSpread || !IsFinite(std) {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	mean := Mean(signal)
	for i, v := range signal {
		out[i] = Clamp01((v-mean)/(2*std) + 0.5)
	}
	return out
}
