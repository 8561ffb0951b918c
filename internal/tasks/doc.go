// Package tasks runs long library operations against a Subsonic server with real-time progress reporting.
//
// # Core Operations
//
// [LibraryEngine] offers two operations:
//
//  1. [LibraryEngine.Sync] : Mirror the library into the local cache
//     - Pages through getAlbumList2 until a short page (or the configured limit)
//     - Fetches every album with bounded concurrency (errgroup)
//     - Caches each album through a [LibraryCacher] and records the sync totals
//     - Failed albums are reported in the result; only cancellation stops the sync
//
//  2. [LibraryEngine.Download] : Save songs to disk
//     - Worker pool paced by a rate limiter
//     - Each song is read through a lazily buffered SongStream, probed for its
//     container, and copied to a file named after its track number and title
//     - Optionally writes a JSON manifest of the run
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Caching
//
// The [LibraryCacher] interface is implemented by repositories.LibraryCacheAdapter. A nil
// cacher turns Sync into a dry run that only counts the library.
package tasks
