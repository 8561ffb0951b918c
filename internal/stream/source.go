package stream

import (
	"context"
	"io"
)

// DefaultChunkSize is the read size used by [BodySource] when none is configured.
const DefaultChunkSize = 32 * 1024

// ChunkSource produces a byte stream as a sequence of forward-only chunks.
//
// Next returns [io.EOF] once no chunks remain; a final chunk may accompany it.
// Any other error is a transport fault.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to [ChunkSource].
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Next(ctx context.Context) ([]byte, error) { return f(ctx) }

// BodySource reads an HTTP response body in chunks of up to a fixed size.
//
// The body's own request context governs cancellation of an in-flight read;
// ctx is only checked before reading starts.
type BodySource struct {
	body io.ReadCloser
	size int
}

// NewBodySource wraps body. A non-positive chunkSize falls back to [DefaultChunkSize].
func NewBodySource(body io.ReadCloser, chunkSize int) *BodySource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &BodySource{body: body, size: chunkSize}
}

// Next reads the next chunk from the body.
func (s *BodySource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, s.size)
	n, err := s.body.Read(buf)
	return buf[:n], err
}

// Close closes the body.
func (s *BodySource) Close() error {
	return s.body.Close()
}

// SliceSource yields a fixed list of chunks, then Err (or [io.EOF] when Err is nil).
type SliceSource struct {
	Chunks [][]byte
	Err    error
	Pulls  int
}

// NewSliceSource creates a [SliceSource] over chunks.
func NewSliceSource(chunks ...[]byte) *SliceSource {
	return &SliceSource{Chunks: chunks}
}

// Next returns the next chunk. Pulls counts every call.
func (s *SliceSource) Next(ctx context.Context) ([]byte, error) {
	s.Pulls++
	if len(s.Chunks) == 0 {
		if s.Err != nil {
			return nil, s.Err
		}
		return nil, io.EOF
	}

	chunk := s.Chunks[0]
	s.Chunks = s.Chunks[1:]
	return chunk, nil
}
