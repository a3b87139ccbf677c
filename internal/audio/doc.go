// Package audio implements the signal side of the playback engine.
//
// It contains the fade curve evaluator ([Ease]), the volume composer ([EffectiveVolume] and [Fader]),
// the effects graph bookkeeping ([Graph]) over a [GraphBackend], the platform sink abstraction
// ([Sink], [Event], [Media]) and a production sink ([Device]) built on gopxl/beep.
//
// Nothing here is safe for concurrent use on its own; the player package serialises access
// behind its engine mutex and hands the [Fader] a [Scheduler] whose ticks take that mutex.
package audio
