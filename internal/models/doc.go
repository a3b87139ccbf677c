// Package models defines the domain entities of the tapedeck music library and playback engine.
//
// The package contains two categories of types:
//
// 1. Library entities, persisted by the repositories package and held read-mostly by the engine:
//   - [Track] : a playable item with metadata, a [Source], cue points and a trim window
//   - [Folder] : a named, nestable grouping of tracks
//   - [Playlist] : an ordered list of track ids
//   - [EffectPreset] : a named snapshot of [EffectParams] plus an [Environment]
//
// 2. Playback vocabulary shared by the audio, player and config layers:
//   - [Curve] : fade curve kinds (linear, exponential, smooth)
//   - [Environment] : acoustic environment presets for the effects graph
//   - [EffectParams] : live effect parameters
//
// A [Source] is a tagged union of [LocalBlob], [CloudRef] and [RemoteURL].
// Code that consumes it switches exhaustively on the concrete type.
//
// All persistent entities implement [Model]; [Repository] defines the standard CRUD surface.
// JSON shapes round-trip losslessly.
package models
