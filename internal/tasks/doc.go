// Package tasks manages offline availability of tracks with real-time progress reporting.
//
// # Core Operations
//
// [OfflineManager] exposes three operations:
//
//  1. [OfflineManager.Download] : copy a track's source into an owned blob
//     - Fetches bytes through the source resolver (cloud drive or remote URL)
//     - Stores them in the blob store and marks the track offline
//     - Deletes the blob and clears the flag if the track cannot be saved
//
//  2. [OfflineManager.Remove] : drop an offline copy
//     - Clears the flag and saves the track first
//     - Restores the flag if the save fails, otherwise deletes the blob
//
//  3. [OfflineManager.BulkDownload] : download many tracks
//     - Worker pool fed by a producer throttled with [rate.Limiter]
//     - Already-offline tracks are skipped and counted
//     - Optional JSON manifest written through the formatter package
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
