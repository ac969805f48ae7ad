// Package server exposes the song catalog over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// The [BasicRouter] implementation registers method-qualified patterns on [http.ServeMux], so
// handlers read wildcards with [http.Request.PathValue].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [SongHandler] is the one shipped here:
//
//	GET    /songs         list every song
//	GET    /songs/{id}    one song, 404 when absent
//	POST   /songs         create from JSON or form fields, 201 {"id": n}
//	PUT    /songs/{id}    full replace
//	POST   /update/{id}   full replace from an HTML form
//	DELETE /songs/{id}    {"deleted": bool}
//	POST   /delete/{id}   same, for HTML forms
//	GET    /healthz       backend reachability and catalog counts
//
// # Middleware
//
// [RequestLogger] assigns request ids, [Recover] converts panics to 500s and [RateLimiter] applies a
// per-client token bucket.
package server
