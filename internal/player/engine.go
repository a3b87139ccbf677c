package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/queue"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const notificationBuffer = 32

// Options configure a new [Engine]. Sink, Resolver and Store are required.
type Options struct {
	Sink      audio.Sink
	Backend   audio.GraphBackend // defaults to Sink when it implements GraphBackend
	Scheduler audio.Scheduler    // defaults to audio.ClockScheduler
	Resolver  SourceResolver
	Store     Store
	Logger    *log.Logger
	Settings  *Settings // defaults to DefaultSettings
}

// pendingLoad is a resolved source waiting for the outgoing track to fade out.
type pendingLoad struct {
	token  uint64
	track  models.Track
	src    *services.Source
	media  audio.Media
	cancel context.CancelFunc
}

func (p *pendingLoad) discard() {
	if p.media.Reader != nil {
		p.media.Reader.Close()
	}
	p.src.Release()
	p.cancel()
}

// Engine is the playback state machine. Create one with [New].
type Engine struct {
	mu       sync.Mutex
	sink     audio.Sink
	graph    *audio.Graph
	fader    *audio.Fader
	resolver SourceResolver
	store    Store
	logger   *log.Logger

	queue        *queue.Queue
	library      []models.Track
	settings     Settings
	trackVolumes map[string]float64

	state     State
	restore   State
	current   *models.Track
	handle    *services.Source
	gen       uint64
	ended     bool
	fadingOut bool
	// detached is set when the playing track no longer sits under the queue cursor,
	// so the cursor entry is what plays next.
	detached bool

	token        uint64
	loadCancel   context.CancelFunc
	streamCancel context.CancelFunc
	pending      *pendingLoad

	notes  chan Notification
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// lockedScheduler runs every tick under the engine mutex.
type lockedScheduler struct {
	inner audio.Scheduler
	mu    *sync.Mutex
}

func (s lockedScheduler) Repeat(interval time.Duration, tick func()) func() {
	return s.inner.Repeat(interval, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		tick()
	})
}

// nullBackend refuses to build, so the graph degrades to no effects.
type nullBackend struct{}

func (nullBackend) CreateNode(audio.Node) error {
	return fmt.Errorf("%w: sink has no effects backend", shared.ErrEffectsUnavailable)
}
func (nullBackend) Connect(audio.Node, audio.Node) error    { return nil }
func (nullBackend) Disconnect(audio.Node, audio.Node) error { return nil }
func (nullBackend) ApplyEffects(models.EffectParams, models.Environment) error {
	return nil
}
func (nullBackend) Teardown() {}

// New creates an Engine and starts consuming sink events.
func New(opts Options) (*Engine, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("%w: sink", shared.ErrMissingArgument)
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("%w: resolver", shared.ErrMissingArgument)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	backend := opts.Backend
	if backend == nil {
		if b, ok := opts.Sink.(audio.GraphBackend); ok {
			backend = b
		} else {
			backend = nullBackend{}
		}
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = audio.ClockScheduler{}
	}
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		sink:         opts.Sink,
		resolver:     opts.Resolver,
		store:        opts.Store,
		logger:       logger,
		queue:        queue.New(),
		trackVolumes: make(map[string]float64),
		notes:        make(chan Notification, notificationBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}
	e.fader = audio.NewFader(lockedScheduler{inner: sched, mu: &e.mu})
	e.graph = audio.NewGraph(backend, logger.WithPrefix("graph"))
	e.applySettings(settings)

	e.wg.Add(1)
	go e.consume()
	return e, nil
}

// NewFromConfig creates an Engine with session settings taken from cfg.
func NewFromConfig(cfg shared.PlaybackConfig, opts Options) (*Engine, error) {
	settings := SettingsFromConfig(cfg, opts.Logger)
	opts.Settings = &settings
	return New(opts)
}

func (e *Engine) consume() {
	defer e.wg.Done()
	events := e.sink.Events()
	for {
		select {
		case <-e.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.HandleSinkEvent(e.ctx, ev)
		}
	}
}

// Notifications returns the channel of asynchronous outcomes. Sends never block;
// notifications are dropped when the buffer is full. The channel is closed by Close.
func (e *Engine) Notifications() <-chan Notification {
	return e.notes
}

// Close cancels loads and fades, releases the source handle and tears down the graph and sink.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.token++
	e.dropPending()
	e.fader.Cancel()
	e.cancel()
	if e.handle != nil {
		e.handle.Release()
		e.handle = nil
	}
	e.graph.Close()
	err := e.sink.Close()
	e.resolver.Close()
	e.state = StateIdle
	e.current = nil
	close(e.notes)
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Debug("engine closed")
	return err
}

// Snapshot returns the current public playback state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:       e.state,
		IsPlaying:   e.state == StatePlaying,
		IsLoading:   e.state == StateLoading,
		Volume:      e.settings.Volume,
		QueueLength: e.queue.Len(),
		Cursor:      e.queue.Cursor(),
	}
	if e.current != nil {
		t := *e.current
		snap.CurrentTrack = &t
		snap.CurrentTime = e.sink.Position()
		snap.Duration = e.duration()
	}
	return snap
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	if e.state != s {
		e.logger.Debug("state change", "from", e.state, "to", s)
	}
	e.state = s
}

func (e *Engine) notify(n Notification) {
	if e.closed || errors.Is(n.Err, shared.ErrSuperseded) {
		return
	}
	select {
	case e.notes <- n:
	default:
		e.logger.Debug("dropped notification", "kind", n.Kind, "track", n.TrackID)
	}
}

func (e *Engine) fail(trackID string, err error) error {
	e.logger.Warn("playback error", "track", trackID, "err", err)
	e.notify(Notification{Kind: NotifyError, TrackID: trackID, Err: err})
	return err
}

// duration prefers the decoded length and falls back to the track metadata.
func (e *Engine) duration() float64 {
	if d := e.sink.Duration(); d > 0 {
		return d
	}
	if e.current != nil {
		return e.current.Duration
	}
	return 0
}

// target is the effective volume for the current track.
func (e *Engine) target() float64 {
	override := 1.0
	if e.current != nil {
		override = e.current.Gain
		if v, ok := e.trackVolumes[e.current.ID]; ok {
			override = v
		}
	}
	return audio.EffectiveVolume(e.settings.Volume, override)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (e *Engine) fadeIn() {
	e.fadingOut = false
	e.fader.Start(e.sink, e.target(), seconds(e.settings.FadeIn), e.settings.Curve, nil)
}

func (e *Engine) fadeOut(done func()) {
	e.fadingOut = true
	e.fader.Start(e.sink, 0, seconds(e.settings.FadeOut), e.settings.Curve, func() {
		e.fadingOut = false
		if done != nil {
			done()
		}
	})
}

// fadeOutAndPause fades the sink to silence then pauses it. A silent sink pauses at once.
func (e *Engine) fadeOutAndPause(after func()) {
	if !e.sink.Playing() {
		e.fader.Cancel()
		if after != nil {
			after()
		}
		return
	}
	e.fadeOut(func() {
		if err := e.sink.Pause(); err != nil {
			e.fail(e.currentID(), err)
		}
		if after != nil {
			after()
		}
	})
}

func (e *Engine) currentID() string {
	if e.current == nil {
		return ""
	}
	return e.current.ID
}
