package audio

import (
	"math"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const (
	// FadeSteps is the number of volume assignments a timed fade makes.
	FadeSteps = 30
	// Epsilon is the smallest volume distance worth stepping through.
	Epsilon = 0.001
)

// Fader interpolates a [VolumeControl] toward a target over time, one fade at a time.
//
// Starting a fade cancels the one in flight. A cancelled fade never runs its completion.
// Fader is not safe for concurrent use; ticks must be serialised with Start and Cancel
// by the [Scheduler] it is given.
type Fader struct {
	sched  Scheduler
	stop   func()
	gen    uint64
	target float64
}

// NewFader creates a Fader that steps on timers from sched.
func NewFader(sched Scheduler) *Fader {
	return &Fader{sched: sched}
}

// Active reports whether a timed fade is in flight.
func (f *Fader) Active() bool {
	return f.stop != nil
}

// Target returns the target of the fade in flight, or of the last one started.
func (f *Fader) Target() float64 {
	return f.target
}

// Cancel stops the fade in flight without running its completion.
func (f *Fader) Cancel() {
	f.gen++
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
}

// Start fades vc from its current volume to target over d using curve, then calls done (which may be nil).
//
// Distances under [Epsilon] and non-positive durations assign the target immediately and call done
// before returning. The final step always assigns exactly clamp(target, 0, 1).
func (f *Fader) Start(vc VolumeControl, target float64, d time.Duration, curve models.Curve, done func()) {
	f.Cancel()

	if math.IsNaN(target) {
		target = 0
	}
	target = shared.Clamp(target, 0, 1)
	f.target = target
	from := vc.Volume()

	if d <= 0 || math.Abs(target-from) < Epsilon {
		vc.SetVolume(target)
		if done != nil {
			done()
		}
		return
	}

	gen := f.gen
	step := 0
	f.stop = f.sched.Repeat(d/FadeSteps, func() {
		if f.gen != gen {
			return
		}
		step++
		if step < FadeSteps {
			p := float64(step) / FadeSteps
			vc.SetVolume(from + (target-from)*Ease(p, curve))
			return
		}

		vc.SetVolume(target)
		f.Cancel()
		if done != nil {
			done()
		}
	})
}
