// Package ui implements an interactive now-playing terminal interface using bubbletea's Elm architecture.
//
// The TUI drives a running playback engine and shows two views under a now-playing header:
//  1. [LibraryView] : Browse the library; enter replaces the queue and plays from the selection
//  2. [QueueView] : Inspect and edit the queue; enter jumps to an entry
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// A ticker refreshes the engine snapshot and engine notifications arrive through a blocking tea.Cmd.
// Transport commands that may resolve a source run as commands so the UI never blocks on I/O.
//
// Keyboard bindings (space, n/p, ←/→, +/-, e, tab, q) are displayed via charmbracelet/bubbles/help.
package ui
