// Package stream exposes a song delivered over the network as a blocking, seekable byte stream.
//
// Audio decoders want an [io.ReadSeeker]. The Subsonic stream endpoint hands us a forward-only
// HTTP body that we only want to advance from a dedicated set of goroutines. Three pieces bridge the two:
//
//   - [Runtime] : a small worker pool that runs network steps. [Runtime.BlockOn] submits one step and
//     parks the calling goroutine until the step completes.
//   - [Bridge] : an [io.Reader] over a [ChunkSource] that drives one [ChunkSource.Next] call through the
//     runtime whenever it runs out of bytes. Leftover bytes from a large chunk are handed out on later reads.
//   - [SongStream] : an [io.ReadSeekCloser] over any reader that keeps an append-only buffer of every byte
//     pulled so far. Reads past the frontier pull just enough from the source; backward seeks re-read from
//     the buffer and never touch the source again.
//
// # Deadlock hazard
//
// A [Bridge] must not be read from inside a task running on its own [Runtime]. With every worker busy
// waiting on itself, nothing is left to run the step. Decoders should read from their own goroutine.
// [Runtime.BlockOn] returns [ErrReentrant] when it can tell the caller is one of its tasks, which covers
// bridges built from a task's context, but the rule is a precondition rather than something enforced.
//
// # Errors
//
// End of stream is [io.EOF]. Source failures are returned unchanged and are sticky in [SongStream]:
// a failed fetch is never retried. Seeks that would land before offset zero fail with [ErrNegativePosition].
package stream
