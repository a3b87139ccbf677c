// Package repositories implements SQLite persistence for the tapedeck library.
//
// Each repository handles CRUD operations with atomic sequence generation for stable ordering.
// Tracks, folders and playlists use soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TrackRepository] : library tracks with a flattened source union, cue points and trim window
//   - [PlaylistRepository] : ordered playlists backed by the playlist_tracks junction table
//   - [FolderRepository] : nestable folders backed by the folder_tracks junction table
//   - [PresetRepository] : named effect presets with JSON parameters
//   - [BlobRepository] : owned audio bytes for imported and offline tracks
//   - [Store] : the facade the engine and offline manager depend on
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
