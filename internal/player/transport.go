package player

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// restartThreshold is how far into a track PlayPrev restarts it instead of moving back.
const restartThreshold = 3.0

// LoadAndPlay resolves track and plays it, fading out whatever is audible first.
//
// It returns [shared.ErrSuperseded] when a newer request replaced this one while it was
// resolving. On resolution failure the previous state is restored and the error returned.
func (e *Engine) LoadAndPlay(ctx context.Context, track models.Track) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return shared.ErrEngineClosed
	}
	e.token++
	token := e.token
	e.dropPending()
	loadCtx, cancel := context.WithCancel(e.ctx)
	e.loadCancel = cancel
	if e.state != StateLoading {
		e.restore = e.state
	}
	e.setState(StateLoading)
	e.mu.Unlock()

	e.logger.Debug("resolving track", "track", track.ID, "token", token)
	stop := context.AfterFunc(ctx, cancel)
	src, err := e.resolver.Resolve(loadCtx, track)
	var media audio.Media
	if err == nil {
		media, err = src.Media(loadCtx)
	}
	stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	p := &pendingLoad{token: token, track: track, src: src, media: media, cancel: cancel}
	if token != e.token || e.closed {
		if src != nil {
			p.discard()
		} else {
			cancel()
		}
		return fmt.Errorf("%w: load of %s", shared.ErrSuperseded, track.ID)
	}
	e.loadCancel = nil

	if err != nil {
		cancel()
		if src != nil {
			src.Release()
		}
		e.setState(e.restore)
		if e.restore == StatePlaying {
			e.fadeIn()
		}
		return e.fail(track.ID, err)
	}

	e.pending = p
	if e.sink.Playing() {
		e.fadeOut(func() { e.swap(token) })
		return nil
	}
	return e.swap(token)
}

// dropPending abandons the in-flight resolution and any source waiting for its swap.
func (e *Engine) dropPending() {
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	if e.pending != nil {
		e.pending.discard()
		e.pending = nil
	}
}

// swap loads the pending source into the sink and fades it in. Stale tokens are ignored.
func (e *Engine) swap(token uint64) error {
	p := e.pending
	if p == nil || p.token != token {
		return fmt.Errorf("%w: swap for request %d", shared.ErrSuperseded, token)
	}
	e.pending = nil

	e.fader.Cancel()
	e.sink.SetVolume(0)

	media := p.media
	media.Start = p.track.Trim.Start
	media.End = p.track.Trim.End
	gen, err := e.sink.Load(media)
	if err != nil {
		p.src.Release()
		p.cancel()
		e.sink.Unload()
		e.current = nil
		e.setState(StateIdle)
		return e.fail(p.track.ID, err)
	}

	if e.handle != nil {
		e.handle.Release()
	}
	if e.streamCancel != nil {
		e.streamCancel()
	}
	e.handle = p.src
	e.streamCancel = p.cancel
	e.gen = gen
	e.ended = false
	track := p.track
	e.current = &track

	e.graph.Build()
	if err := e.sink.Play(); err != nil {
		e.setState(StatePaused)
		return e.fail(track.ID, err)
	}

	e.setState(StatePlaying)
	e.fadeIn()
	e.logger.Debug("track started", "track", track.ID, "title", track.Title, "gen", gen)
	e.notify(Notification{Kind: NotifyTrackStarted, TrackID: track.ID})
	return nil
}

// abandonLoad cancels the in-flight request and returns to the state it interrupted.
func (e *Engine) abandonLoad() {
	e.token++
	e.dropPending()
	if e.current == nil {
		e.setState(StateIdle)
		return
	}
	e.setState(e.restore)
	if e.restore == StatePlaying {
		e.fadeIn()
	}
}

// TogglePlay pauses with a fade-out, resumes with a fade-in, or starts the current queue track.
// While loading it abandons the pending request and pauses.
func (e *Engine) TogglePlay(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return shared.ErrEngineClosed
	}

	switch e.state {
	case StatePlaying:
		e.setState(StatePaused)
		e.fadeOutAndPause(nil)
		e.mu.Unlock()
		return nil

	case StatePaused:
		err := e.resume()
		e.mu.Unlock()
		return err

	case StateLoading:
		e.restore = StatePaused
		e.abandonLoad()
		e.fadeOutAndPause(nil)
		e.mu.Unlock()
		return nil
	}

	track, ok := e.queue.Current()
	e.detached = false
	e.mu.Unlock()
	if !ok {
		return nil
	}
	return e.LoadAndPlay(ctx, track)
}

// resume plays the loaded track from silence and fades up. A sink still fading out keeps its level.
func (e *Engine) resume() error {
	if e.current == nil {
		e.setState(StateIdle)
		return nil
	}
	if !e.sink.Playing() {
		if e.ended {
			if err := e.sink.Seek(e.current.Trim.Start); err != nil {
				return e.fail(e.current.ID, err)
			}
			e.ended = false
		}
		e.fader.Cancel()
		e.sink.SetVolume(0)
		if err := e.sink.Play(); err != nil {
			return e.fail(e.current.ID, err)
		}
	}
	e.setState(StatePlaying)
	e.fadeIn()
	return nil
}

// Play resumes or starts playback; it does nothing while already playing or loading.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state == StatePlaying || state == StateLoading {
		return nil
	}
	return e.TogglePlay(ctx)
}

// Pause fades out and pauses; it does nothing unless playing or loading.
func (e *Engine) Pause() {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state == StatePlaying || state == StateLoading {
		e.TogglePlay(context.Background())
	}
}

// Stop fades out, unloads the track and returns to Idle. The queue cursor is kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stop()
}

func (e *Engine) stop() {
	e.token++
	e.dropPending()
	e.setState(StateIdle)
	e.fadeOutAndPause(func() {
		if e.state != StateIdle {
			return
		}
		e.sink.Unload()
		e.current = nil
		e.ended = false
		if e.handle != nil {
			e.handle.Release()
			e.handle = nil
		}
	})
}

// Seek moves the playhead to t seconds, clamped to [0, duration]. Non-finite input is ignored.
// Seeking while loading abandons the pending request.
func (e *Engine) Seek(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateLoading {
		e.abandonLoad()
	}
	return e.seek(t)
}

func (e *Engine) seek(t float64) error {
	if e.current == nil {
		return nil
	}
	t = shared.Clamp(t, 0, e.duration())
	if err := e.sink.Seek(t); err != nil {
		return e.fail(e.current.ID, err)
	}
	e.ended = false
	return nil
}

// SeekToCue seeks to the i-th cue point of the current track.
func (e *Engine) SeekToCue(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	if i < 0 || i >= len(e.current.CuePoints) {
		return fmt.Errorf("%w: cue %d of %d", shared.ErrInvalidArgument, i, len(e.current.CuePoints))
	}
	if e.state == StateLoading {
		e.abandonLoad()
	}
	return e.seek(e.current.CuePoints[i])
}

// PlayNext plays the next queued track. At the end of the queue it stops without moving the cursor.
// After the playing entry was removed or the queue replaced, the track under the cursor is next.
func (e *Engine) PlayNext(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return shared.ErrEngineClosed
	}
	var next models.Track
	var ok bool
	if e.detached {
		e.detached = false
		next, ok = e.queue.Current()
	} else {
		next, ok = e.queue.Next()
	}
	if !ok {
		e.logger.Debug("queue exhausted")
		e.stop()
		e.notify(Notification{Kind: NotifyQueueEnded})
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()
	return e.LoadAndPlay(ctx, next)
}

// PlayPrev restarts the current track when it has played past three seconds,
// otherwise plays the previous queued track. At the start of the queue it restarts.
func (e *Engine) PlayPrev(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return shared.ErrEngineClosed
	}
	if e.current != nil && e.sink.Position()-e.current.Trim.Start > restartThreshold {
		err := e.seek(e.current.Trim.Start)
		e.mu.Unlock()
		return err
	}
	e.detached = false
	prev, ok := e.queue.Prev()
	if !ok {
		var err error
		if e.current != nil {
			err = e.seek(e.current.Trim.Start)
		}
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()
	return e.LoadAndPlay(ctx, prev)
}

// HandleSinkEvent processes an event from the sink. Events from earlier loads are dropped.
func (e *Engine) HandleSinkEvent(ctx context.Context, ev audio.Event) {
	e.mu.Lock()
	if e.closed || ev.Generation != e.gen || e.current == nil {
		e.mu.Unlock()
		return
	}
	trackID := e.current.ID

	switch ev.Kind {
	case audio.EventError:
		err := ev.Err
		if !errors.Is(err, shared.ErrPlaybackDevice) {
			err = fmt.Errorf("%w: %v", shared.ErrPlaybackDevice, err)
		}
		e.fader.Cancel()
		e.sink.Pause()
		e.setState(StatePaused)
		e.fail(trackID, err)
		e.mu.Unlock()
		return

	case audio.EventEnded:
		if e.state == StateLoading || e.state == StateIdle {
			e.mu.Unlock()
			return
		}
		e.notify(Notification{Kind: NotifyTrackEnded, TrackID: trackID})
		advance := e.state == StatePlaying && e.settings.AutoAdvance
		// The finished track is silent already; pausing lets the next load swap without a fade-out.
		e.fader.Cancel()
		e.sink.SetVolume(0)
		e.sink.Pause()
		e.ended = true
		e.setState(StatePaused)
		if advance {
			e.mu.Unlock()
			if err := e.PlayNext(ctx); err != nil && !errors.Is(err, shared.ErrSuperseded) {
				e.logger.Warn("auto-advance failed", "err", err)
			}
			return
		}
	}
	e.mu.Unlock()
}
