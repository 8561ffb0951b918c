package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
)

var (
	ErrNegativePosition = errors.New("stream: seek to negative position")
	ErrPositionOverflow = errors.New("stream: seek position overflows")
	ErrInvalidWhence    = errors.New("stream: invalid whence")
)

// pullWindow caps a single read from the source so the buffer only grows as bytes arrive.
const pullWindow = 64 * 1024

// maxEmptyReads matches bufio's tolerance for readers that return (0, nil).
const maxEmptyReads = 100

var (
	_ io.ReadSeekCloser = (*SongStream)(nil)
	_ io.ReaderAt       = (*SongStream)(nil)
)

// SongStream makes a forward-only reader seekable by remembering every byte it has read.
//
// The buffer only grows and always starts at source offset 0. It is filled lazily: a
// read pulls from the source only as far as cursor+len(p). Seeks never pull.
// SongStream holds no lock and must have a single owner.
type SongStream struct {
	src    io.Reader
	loaded []byte
	pos    int64
	eof    bool
	err    error
}

// NewSongStream wraps r, which the SongStream takes ownership of.
func NewSongStream(r io.Reader) *SongStream {
	return &SongStream{src: r}
}

// Open builds the usual stack for a network body: a [BodySource] read through a [Bridge] on rt.
func Open(ctx context.Context, rt *Runtime, body io.ReadCloser, chunkSize int) *SongStream {
	return NewSongStream(NewBridge(ctx, rt, NewBodySource(body, chunkSize)))
}

// Read reads from the current position, pulling from the source if the buffer is short.
//
// At or past the end of a finished stream Read returns (0, [io.EOF]).
func (s *SongStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if err := s.ensure(addClamped(s.pos, len(p))); err != nil {
		return 0, err
	}

	if s.pos >= int64(len(s.loaded)) {
		return 0, io.EOF
	}

	n := copy(p, s.loaded[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// ReadAt reads len(p) bytes at off without moving the cursor.
func (s *SongStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativePosition, off)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := s.ensure(addClamped(off, len(p))); err != nil {
		return 0, err
	}

	if off >= int64(len(s.loaded)) {
		return 0, io.EOF
	}

	n := copy(p, s.loaded[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek sets the cursor. [io.SeekEnd] is relative to the bytes loaded so far, not the
// end of the song. Seeking past the loaded frontier is allowed and pulls nothing.
func (s *SongStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = int64(len(s.loaded))
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}

	if offset > 0 && base > math.MaxInt64-offset {
		return 0, fmt.Errorf("%w: %d%+d", ErrPositionOverflow, base, offset)
	}

	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativePosition, next)
	}

	s.pos = next
	return next, nil
}

// Loaded returns how many bytes have been pulled from the source.
func (s *SongStream) Loaded() int64 {
	return int64(len(s.loaded))
}

// Complete reports whether the source has reached end of data.
func (s *SongStream) Complete() bool {
	return s.eof
}

// Close closes the source if it is an [io.Closer]. Buffered bytes stay readable.
func (s *SongStream) Close() error {
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ensure pulls from the source until at least n bytes are loaded, the source ends, or it fails.
func (s *SongStream) ensure(n int64) error {
	empty := 0
	for int64(len(s.loaded)) < n {
		if s.eof {
			return nil
		}
		if s.err != nil {
			return s.err
		}

		want := int(min(n-int64(len(s.loaded)), pullWindow))
		s.loaded = slices.Grow(s.loaded, want)
		start := len(s.loaded)

		m, err := s.src.Read(s.loaded[start : start+want])
		s.loaded = s.loaded[:start+m]

		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			s.err = err
			return err
		case m == 0:
			empty++
			if empty >= maxEmptyReads {
				s.err = io.ErrNoProgress
				return s.err
			}
		default:
			empty = 0
		}
	}
	return nil
}

func addClamped(pos int64, n int) int64 {
	if pos > math.MaxInt64-int64(n) {
		return math.MaxInt64
	}
	return pos + int64(n)
}
