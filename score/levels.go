package score

// Level grades a displayed metric
type Level string

const (
	LevelLow  Level = "low"
	LevelFair Level = "fair"
	LevelGood Level = "good"
)

// Metric names a graded metric
type Metric string

const (
	MetricSDNN  Metric = "sdnn"
	MetricRMSSD Metric = "rmssd"
	MetricLFHF  Metric = "lf_hf"
	MetricScore Metric = "score"
)

// Grade classifies value for display. LF/HF is good between 1.5 and 2.0,
// fair within 0.5 to 3.0 and low outside. Unknown metrics grade fair.
func Grade(metric Metric, value float64) Level {
	switch metric {
	case MetricSDNN:
		return threshold(value, 30, 60)
	case MetricRMSSD:
		return threshold(value, 25, 50)
	case MetricScore:
		return threshold(value, 40, 70)
	case MetricLFHF:
		switch {
		case value < 0.5 || value > 3.0:
			return LevelLow
		case value >= 1.5 && value <= 2.0:
			return LevelGood
		default:
			return LevelFair
		}
	default:
		return LevelFair
	}
}

func threshold(value, fair, good float64) Level {
	switch {
	case value < fair:
		return LevelLow
	case value < good:
		return LevelFair
	default:
		return LevelGood
	}
}
