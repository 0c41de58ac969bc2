package smoothing

import "math"

// AntiJump clips relative changes larger than MaxRelative against a reference
type AntiJump struct {
	MaxRelative float64
}

// NewAntiJump creates a clamp allowing relative steps up to maxRelative
func NewAntiJump(maxRelative float64) AntiJump {
	return AntiJump{MaxRelative: maxRelative}
}

// Apply returns x when |x-ref|/|ref| <= MaxRelative, otherwise ref moved by
// MaxRelative*|ref| toward x. A zero reference accepts x.
func (a AntiJump) Apply(x, ref float64) float64 {
	if ref == 0 || math.IsNaN(ref) {
		return x
	}

	step := a.MaxRelative * math.Abs(ref)
	if math.Abs(x-ref) <= step {
		return x
	}
	if x > ref {
		return ref + step
	}
	return ref - step
}
