package audio

import (
	"math"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// EffectiveVolume combines the master volume with a per-track override into the fade target.
func EffectiveVolume(master, override float64) float64 {
	v := master * override
	if math.IsNaN(v) {
		return 0
	}
	return shared.Clamp(v, 0, 1)
}

// VolumeControl is anything with a live linear volume in [0, 1].
type VolumeControl interface {
	Volume() float64
	SetVolume(v float64)
}
