// Package server exposes the preload window over HTTP for dashboards and manual poking.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
//	GET  /health           liveness
//	GET  /feed             feed items in window order
//	GET  /window           current index, per-item status and resident urls
//	POST /window/position  body {"index": N}; runs a pass and returns the new snapshot
//	POST /window/refresh   reloads the feed from the store and runs a pass
//	GET  /window/events    websocket; one JSON snapshot per pass
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
