package stream

import (
	"context"
	"errors"
	"io"
)

// Bridge is a blocking [io.Reader] over a [ChunkSource] that is advanced by a [Runtime].
//
// Each Read that finds no buffered bytes drives exactly one [ChunkSource.Next] call
// to completion on the runtime and blocks the caller until it returns. Faults from the
// source are returned as-is; the bridge never retries.
type Bridge struct {
	ctx     context.Context
	rt      *Runtime
	src     ChunkSource
	pending []byte
	eof     bool
	err     error
}

// NewBridge creates a Bridge that owns src. rt must outlive the bridge.
func NewBridge(ctx context.Context, rt *Runtime, src ChunkSource) *Bridge {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Bridge{ctx: ctx, rt: rt, src: src}
}

// Read copies up to len(p) bytes of the stream into p.
//
// Short reads are normal. End of data is (0, [io.EOF]). Empty non-final chunks
// are skipped rather than surfaced as (0, nil). A source error is returned after
// any bytes that came with it, and on every later call.
func (b *Bridge) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(b.pending) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		if b.eof {
			return 0, io.EOF
		}
		b.pull()
	}

	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

// pull fetches one chunk. A chunk that arrives with an error is kept; the error
// is reported once those bytes have been read.
func (b *Bridge) pull() {
	var (
		chunk []byte
		err   error
	)

	if rerr := b.rt.BlockOn(b.ctx, func(ctx context.Context) {
		chunk, err = b.src.Next(ctx)
	}); rerr != nil {
		b.err = rerr
		return
	}

	switch {
	case errors.Is(err, io.EOF):
		b.eof = true
	case err != nil:
		b.err = err
	}

	b.pending = chunk
}

// Close closes the source if it is an [io.Closer].
func (b *Bridge) Close() error {
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
