package audio

import (
	"math"

	"github.com/desertthunder/tapedeck/internal/models"
)

// Ease maps fade progress p in [0, 1] to a volume multiplier in [0, 1].
//
// linear is the identity, exponential is p², smooth is the smoothstep 3p²-2p³.
// p is clamped first; NaN counts as 0. Unknown curves fall back to linear.
func Ease(p float64, curve models.Curve) float64 {
	switch {
	case math.IsNaN(p) || p <= 0:
		return 0
	case p >= 1:
		return 1
	}

	switch curve {
	case models.CurveExponential:
		return p * p
	case models.CurveSmooth:
		return p * p * (3 - 2*p)
	default:
		return p
	}
}
