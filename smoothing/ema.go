// Package smoothing provides the per-metric stabilizers that keep displayed
// values from jittering between computation ticks.
package smoothing

// EMA is an exponential moving average y = (1-alpha)*y + alpha*x. The first
// value seeds the average exactly.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

// NewEMA creates an unseeded average. alpha is clamped to [0, 1].
func NewEMA(alpha float64) *EMA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return &EMA{alpha: alpha}
}

// Push folds x into the average and returns the new value
func (e *EMA) Push(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = (1-e.alpha)*e.value + e.alpha*x
	return e.value
}

// Value returns the current average and whether it has been seeded
func (e *EMA) Value() (float64, bool) {
	return e.value, e.seeded
}

// Reset forgets the average
func (e *EMA) Reset() {
	e.value = 0
	e.seeded = false
}
