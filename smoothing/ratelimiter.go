package smoothing

import (
	"time"

	"github.com/RyanBlaney/sonido-coherence/algorithms/common"
)

// minStep bounds dt from below so repeated calls at the same instant still move
const minStep = time.Microsecond

// RateLimiter bounds how fast a value may change: |dx| <= MaxRate * dt, with
// MaxRate in units per second
type RateLimiter struct {
	MaxRate float64

	last   float64
	lastAt time.Time
	seeded bool
}

// NewRateLimiter creates an unseeded limiter
func NewRateLimiter(maxRate float64) *RateLimiter {
	return &RateLimiter{MaxRate: maxRate}
}

// Step moves the output toward x by at most MaxRate*dt and returns it. The
// first call seeds the output with x.
func (r *RateLimiter) Step(x float64, now time.Time) float64 {
	if !r.seeded {
		r.last, r.lastAt, r.seeded = x, now, true
		return r.last
	}

	dt := max(now.Sub(r.lastAt), minStep).Seconds()
	limit := r.MaxRate * dt
	r.last += common.Clamp(x-r.last, -limit, limit)
	r.lastAt = now
	return r.last
}

// Value returns the last output and whether the limiter has been seeded
func (r *RateLimiter) Value() (float64, bool) {
	return r.last, r.seeded
}

// Reset forgets the last output
func (r *RateLimiter) Reset() {
	r.last = 0
	r.lastAt = time.Time{}
	r.seeded = false
}
