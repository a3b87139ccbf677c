package audio

import (
	"math"

	"github.com/gopxl/beep/v2"

	"github.com/desertthunder/tapedeck/internal/models"
)

// comb is a feedback comb filter with a damped loop.
type comb struct {
	buf      []float64
	pos      int
	feedback float64
	damp     float64
	store    float64
}

func newComb(size int) *comb {
	return &comb{buf: make([]float64, max(size, 1)), damp: 0.2}
}

func (c *comb) process(x float64) float64 {
	y := c.buf[c.pos]
	c.store = y*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = x + c.store*c.feedback
	c.pos = (c.pos + 1) % len(c.buf)
	return y
}

// allpass diffuses the comb output.
type allpass struct {
	buf []float64
	pos int
}

func newAllpass(size int) *allpass {
	return &allpass{buf: make([]float64, max(size, 1))}
}

func (a *allpass) process(x float64) float64 {
	const g = 0.5
	b := a.buf[a.pos]
	y := b - x
	a.buf[a.pos] = x + b*g
	a.pos = (a.pos + 1) % len(a.buf)
	return y
}

// Comb and allpass lengths in seconds; the right channel is offset for width.
var (
	combTimes    = []float64{0.0297, 0.0371, 0.0411, 0.0437}
	allpassTimes = []float64{0.005, 0.0017}
	stereoSpread = 0.0005
)

// reverb is a small Schroeder reverberator standing in for a convolver.
type reverb struct {
	combs  [2][]*comb
	passes [2][]*allpass
	times  [2][]float64
	rate   float64
}

func newReverb(rate beep.SampleRate) *reverb {
	r := &reverb{rate: float64(rate)}
	for ch := 0; ch < 2; ch++ {
		spread := float64(ch) * stereoSpread
		for _, t := range combTimes {
			r.combs[ch] = append(r.combs[ch], newComb(int((t+spread)*r.rate)))
			r.times[ch] = append(r.times[ch], t+spread)
		}
		for _, t := range allpassTimes {
			r.passes[ch] = append(r.passes[ch], newAllpass(int((t+spread)*r.rate)))
		}
	}
	r.setDecay(1.5)
	return r
}

// setDecay sets the comb feedback so each loop falls 60 dB over decay seconds.
func (r *reverb) setDecay(decay float64) {
	if decay <= 0 {
		decay = 0.01
	}
	for ch := 0; ch < 2; ch++ {
		for i, c := range r.combs[ch] {
			c.feedback = math.Pow(10, -3*r.times[ch][i]/decay)
		}
	}
}

func (r *reverb) process(ch int, x float64) float64 {
	var y float64
	for _, c := range r.combs[ch] {
		y += c.process(x)
	}
	y /= float64(len(r.combs[ch]))
	for _, a := range r.passes[ch] {
		y = a.process(y)
	}
	return y
}

// router realises the graph edges: the dry path, the wet path through the reverb, or a bypass.
type router struct {
	Streamer beep.Streamer

	bypass     bool
	srcToGain  bool
	srcToConv  bool
	convToGain bool
	gainToDest bool

	reverb *reverb
	wetMix float64
}

func (r *router) wet() bool { return r.srcToConv && r.convToGain }

func (r *router) Stream(samples [][2]float64) (int, bool) {
	n, ok := r.Streamer.Stream(samples)
	if r.bypass {
		return n, ok
	}
	wet := r.wet()
	for i := 0; i < n; i++ {
		var out [2]float64
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			if r.srcToGain {
				out[ch] = x
			}
			if wet {
				out[ch] += r.wetMix * r.reverb.process(ch, x)
			}
			if !r.gainToDest {
				out[ch] = 0
			}
		}
		samples[i] = out
	}
	return n, ok
}

func (r *router) Err() error { return r.Streamer.Err() }

// colour applies the insert effects: distortion, bass boost, delay and normalisation.
type colour struct {
	Streamer beep.Streamer

	params models.EffectParams
	rate   float64

	delay    [2][]float64
	delayPos int
	lowpass  [2]float64
	peak     float64
}

func newColour(s beep.Streamer, rate beep.SampleRate) *colour {
	c := &colour{Streamer: s, rate: float64(rate)}
	size := int(models.MaxDelayTime*c.rate) + 1
	c.delay[0] = make([]float64, size)
	c.delay[1] = make([]float64, size)
	return c
}

func (c *colour) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.Streamer.Stream(samples)
	p := c.params

	drive := 1 + 9*p.Distortion
	boost := math.Pow(10, p.BassBoost/20) - 1
	alpha := 1 - math.Exp(-2*math.Pi*150/c.rate)
	delaySamples := int(p.DelayTime * c.rate)
	if delaySamples >= len(c.delay[0]) {
		delaySamples = len(c.delay[0]) - 1
	}

	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]

			if p.Distortion > 0 {
				x = math.Tanh(drive*x) / math.Tanh(drive)
			}
			if p.BassBoost > 0 {
				c.lowpass[ch] += alpha * (x - c.lowpass[ch])
				x += boost * c.lowpass[ch]
			}
			if p.DelayMix > 0 && delaySamples > 0 {
				read := (c.delayPos - delaySamples + len(c.delay[ch])) % len(c.delay[ch])
				echo := c.delay[ch][read]
				c.delay[ch][c.delayPos] = x + echo*p.DelayFeedback
				x += p.DelayMix * echo
			}
			samples[i][ch] = x
		}
		c.delayPos = (c.delayPos + 1) % len(c.delay[0])

		if p.Normalize {
			c.normalize(&samples[i])
		}
	}
	return n, ok
}

// normalize follows the signal peak and scales it toward a fixed ceiling.
func (c *colour) normalize(frame *[2]float64) {
	const (
		ceiling = 0.9
		release = 0.9995
	)
	peak := math.Max(math.Abs(frame[0]), math.Abs(frame[1]))
	c.peak = math.Max(peak, c.peak*release)
	if c.peak > ceiling {
		scale := ceiling / c.peak
		frame[0] *= scale
		frame[1] *= scale
	}
}

func (c *colour) Err() error { return c.Streamer.Err() }
