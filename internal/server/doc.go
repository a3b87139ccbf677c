// Package server provides HTTP routing, middleware, and the playback control surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] records each request through charmbracelet/log; [Recover] turns panics into 500s.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method patterns.
//
// # Player Handler
//
// [PlayerHandler] exposes a running engine:
//
//	GET  /state              → playback snapshot
//	GET  /queue              → queue tracks and cursor
//	POST /toggle             → play/pause
//	POST /next, /prev        → queue navigation
//	POST /seek?t=SECONDS     → seek within the current track
//	POST /skip?index=N       → jump to a queue entry
//	POST /volume?v=LEVEL     → master volume in [0, 1]
//	POST /environment?kind=K → none, small-room, cathedral or temple
//
// Commands respond with the snapshot taken after the command. A request superseded by a later one
// is reported as success. Invalid arguments map to 400 and unavailable sources to 409.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
