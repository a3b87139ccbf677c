package audio

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const (
	// DeviceSampleRate is the output rate; media at other rates is resampled.
	DeviceSampleRate = beep.SampleRate(44100)
	// DeviceBuffer is the speaker buffer length.
	DeviceBuffer = 100 * time.Millisecond

	resampleQuality = 4
	eventBuffer     = 8
)

// Output is the hardware side of a [Device]. The default is the beep speaker.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Clear()               { speaker.Clear() }

// loaded bundles the resources of one decoded media item.
type loaded struct {
	stream   beep.StreamSeekCloser
	format   beep.Format
	streamer beep.Streamer
	end      int
	gen      uint64
	fired    bool
}

// slot is the swappable head of the chain. It outputs silence when empty and
// reports the end of the loaded media once per load.
type slot struct {
	cur  *loaded
	emit func(Event)
}

func (s *slot) Stream(samples [][2]float64) (int, bool) {
	t := s.cur
	if t == nil || t.fired {
		clear(samples)
		return len(samples), true
	}

	n, ok := t.streamer.Stream(samples)
	atEnd := !ok || n < len(samples) || (t.end > 0 && t.stream.Position() >= t.end)
	clear(samples[n:])
	if atEnd {
		t.fired = true
		if err := t.streamer.Err(); err != nil {
			s.emit(Event{Kind: EventError, Generation: t.gen, Err: fmt.Errorf("%w: %v", shared.ErrPlaybackDevice, err)})
		} else {
			s.emit(Event{Kind: EventEnded, Generation: t.gen})
		}
	}
	return len(samples), true
}

func (s *slot) Err() error { return nil }

// Device is the production [Sink] and [GraphBackend] built on gopxl/beep.
//
// The chain is slot → colour → router → gain → ctrl → speaker. It is started lazily on first Load.
type Device struct {
	out    Output
	logger *log.Logger
	rate   beep.SampleRate

	startOnce sync.Once
	startErr  error

	slot   *slot
	colour *colour
	router *router
	gain   *effects.Gain
	ctrl   *beep.Ctrl

	volume float64
	gen    uint64
	events chan Event
}

// NewDevice creates a Device on the system speaker.
func NewDevice(logger *log.Logger) *Device {
	return NewDeviceWithOutput(speakerOutput{}, logger)
}

// NewDeviceWithOutput creates a Device on out.
func NewDeviceWithOutput(out Output, logger *log.Logger) *Device {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	d := &Device{
		out:    out,
		logger: logger,
		rate:   DeviceSampleRate,
		volume: 1,
		events: make(chan Event, eventBuffer),
	}

	d.slot = &slot{emit: d.emit}
	d.colour = newColour(d.slot, d.rate)
	d.router = &router{Streamer: d.colour, bypass: true, reverb: newReverb(d.rate)}
	d.gain = &effects.Gain{Streamer: d.router, Gain: 0}
	d.ctrl = &beep.Ctrl{Streamer: d.gain, Paused: true}
	return d
}

func (d *Device) start() error {
	d.startOnce.Do(func() {
		if err := d.out.Init(d.rate, d.rate.N(DeviceBuffer)); err != nil {
			d.startErr = fmt.Errorf("%w: failed to initialize speaker: %v", shared.ErrPlaybackDevice, err)
			return
		}
		d.out.Play(d.ctrl)
		d.logger.Debug("audio device started", "rate", d.rate)
	})
	return d.startErr
}

func (d *Device) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("dropped sink event", "kind", ev.Kind)
	}
}

// Events returns the channel of end-of-media and error events.
func (d *Device) Events() <-chan Event { return d.events }

// Load decodes m and makes it the current media, paused at its window start.
func (d *Device) Load(m Media) (uint64, error) {
	if err := d.start(); err != nil {
		closeReader(m.Reader)
		return 0, err
	}

	stream, format, err := decode(m)
	if err != nil {
		closeReader(m.Reader)
		return 0, fmt.Errorf("%w: failed to decode media: %v", shared.ErrPlaybackDevice, err)
	}

	t := &loaded{stream: stream, format: format, streamer: stream}
	if format.SampleRate != d.rate {
		t.streamer = beep.Resample(resampleQuality, format.SampleRate, d.rate, stream)
	}
	if m.End > 0 {
		t.end = format.SampleRate.N(seconds(m.End))
	}
	if m.Start > 0 {
		if err := stream.Seek(format.SampleRate.N(seconds(m.Start))); err != nil {
			d.logger.Warn("failed to seek to trim start", "start", m.Start, "err", err)
		}
	}

	d.out.Lock()
	old := d.slot.cur
	d.gen++
	t.gen = d.gen
	d.slot.cur = t
	d.ctrl.Paused = true
	gen := d.gen
	d.out.Unlock()

	if old != nil {
		old.stream.Close()
	}
	return gen, nil
}

// Unload stops output and releases the current media.
func (d *Device) Unload() {
	d.out.Lock()
	old := d.slot.cur
	d.slot.cur = nil
	d.ctrl.Paused = true
	d.gen++
	d.out.Unlock()

	if old != nil {
		old.stream.Close()
	}
}

func (d *Device) Play() error {
	if err := d.start(); err != nil {
		return err
	}

	d.out.Lock()
	defer d.out.Unlock()
	if d.slot.cur == nil {
		return fmt.Errorf("%w: nothing loaded", shared.ErrPlaybackDevice)
	}
	d.ctrl.Paused = false
	return nil
}

func (d *Device) Pause() error {
	d.out.Lock()
	d.ctrl.Paused = true
	d.out.Unlock()
	return nil
}

func (d *Device) Playing() bool {
	d.out.Lock()
	defer d.out.Unlock()
	return d.slot.cur != nil && !d.ctrl.Paused
}

// Seek moves to seconds, clamped to the media length.
func (d *Device) Seek(secs float64) error {
	d.out.Lock()
	defer d.out.Unlock()

	t := d.slot.cur
	if t == nil {
		return nil
	}
	n := t.format.SampleRate.N(seconds(secs))
	n = min(max(n, 0), max(t.stream.Len()-1, 0))
	if err := t.stream.Seek(n); err != nil {
		return fmt.Errorf("%w: seek failed: %v", shared.ErrPlaybackDevice, err)
	}
	t.fired = false
	return nil
}

func (d *Device) Position() float64 {
	d.out.Lock()
	defer d.out.Unlock()

	t := d.slot.cur
	if t == nil {
		return 0
	}
	return t.format.SampleRate.D(t.stream.Position()).Seconds()
}

func (d *Device) Duration() float64 {
	d.out.Lock()
	defer d.out.Unlock()

	t := d.slot.cur
	if t == nil {
		return 0
	}
	return t.format.SampleRate.D(t.stream.Len()).Seconds()
}

func (d *Device) Volume() float64 {
	d.out.Lock()
	defer d.out.Unlock()
	return d.volume
}

// SetVolume sets the linear output level; effects.Gain multiplies by 1+Gain.
func (d *Device) SetVolume(v float64) {
	v = shared.Clamp(v, 0, 1)
	d.out.Lock()
	d.volume = v
	d.gain.Gain = v - 1
	d.out.Unlock()
}

// Close stops output and releases the current media. The device cannot be reused.
func (d *Device) Close() error {
	d.Unload()
	d.out.Clear()
	return nil
}

func (d *Device) CreateNode(n Node) error {
	switch n {
	case NodeSource, NodeConvolver, NodeGain, NodeDestination:
	default:
		return fmt.Errorf("unknown node %q", n)
	}

	d.out.Lock()
	d.router.bypass = false
	d.out.Unlock()
	return nil
}

func (d *Device) Connect(from, to Node) error {
	return d.setEdge(from, to, true)
}

func (d *Device) Disconnect(from, to Node) error {
	return d.setEdge(from, to, false)
}

func (d *Device) setEdge(from, to Node, on bool) error {
	d.out.Lock()
	defer d.out.Unlock()

	switch (Edge{from, to}) {
	case Edge{NodeSource, NodeGain}:
		d.router.srcToGain = on
	case Edge{NodeSource, NodeConvolver}:
		d.router.srcToConv = on
	case Edge{NodeConvolver, NodeGain}:
		d.router.convToGain = on
	case Edge{NodeGain, NodeDestination}:
		d.router.gainToDest = on
	default:
		return fmt.Errorf("unsupported edge %s->%s", from, to)
	}
	return nil
}

// ApplyEffects sets the insert effects and the reverb character. An explicit
// reverb mix or decay overrides the environment's.
func (d *Device) ApplyEffects(params models.EffectParams, env models.Environment) error {
	mix, decay := models.EnvironmentParams(env)
	if params.ReverbMix > 0 {
		mix = params.ReverbMix
	}
	if params.ReverbDecay > 0 && env.Wet() {
		decay = params.ReverbDecay
	}

	d.out.Lock()
	defer d.out.Unlock()
	d.colour.params = params
	d.router.wetMix = mix
	d.router.reverb.setDecay(decay)
	return nil
}

// Teardown returns the router to a straight pass-through.
func (d *Device) Teardown() {
	d.out.Lock()
	defer d.out.Unlock()
	*d.router = router{Streamer: d.colour, bypass: true, reverb: d.router.reverb}
}

func decode(m Media) (beep.StreamSeekCloser, beep.Format, error) {
	if m.Reader == nil {
		return nil, beep.Format{}, fmt.Errorf("no reader")
	}
	switch strings.ToLower(m.MimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		s, f, err := wav.Decode(m.Reader)
		if err != nil {
			return nil, f, err
		}
		return closeWith{s, m.Reader}, f, nil
	default:
		return mp3.Decode(m.Reader)
	}
}

// closeWith closes the reader alongside a decoder that does not own it.
type closeWith struct {
	beep.StreamSeekCloser
	r io.Closer
}

func (c closeWith) Close() error {
	err := c.StreamSeekCloser.Close()
	if cerr := c.r.Close(); err == nil {
		err = cerr
	}
	return err
}

func closeReader(r io.Closer) {
	if r != nil {
		r.Close()
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
