// Package server provides the local relay behind `knuckles serve`: HTTP routing,
// middleware, and handlers over a Subsonic library.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns ("GET /albums/{id}") on an
// [http.ServeMux], so wrong methods get a 405 and wildcards are read with PathValue.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Routes
//
//	GET /health              upstream ping
//	GET /albums              one page of getAlbumList2 (type, size, offset)
//	GET /albums/{id}         album with songs
//	GET /songs/{id}          song metadata
//	GET /songs/{id}/stream   audio, honouring a single bytes=start-[end] Range
//
// Audio is relayed through a SongStream: a ranged request seeks the stream to the range
// start and copies at most the range length, pulling upstream bytes only as far as needed.
package server
