// Package player implements the playback engine: a state machine that owns one audio
// sink and its effects graph, drives fades, and keeps the play queue.
//
// # States
//
//	Idle → Loading → Playing ⇄ Paused → Loading → ... → Idle
//
// Idle means nothing is loaded. Loading means a source resolution is in flight, or the
// outgoing track is fading out before the swap. Playing and Paused refer to the loaded track.
//
// # Concurrency
//
// Every public method takes the engine mutex. Fade ticks (from the [audio.Scheduler]) and
// sink events (from [audio.Sink.Events]) are delivered by other goroutines and processed
// under the same mutex, so the engine behaves like a single event loop.
//
// Source resolution runs without the lock. Each load carries a request token; a load whose
// token is no longer the latest is discarded and reported as [shared.ErrSuperseded], which is
// never sent on the notification channel.
//
// # Transitions
//
// A track change fades the audible track out, swaps the source when the fade completes and
// fades the new track in. Only one source is ever audible.
package player
