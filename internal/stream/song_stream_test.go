package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"
)

// newTestStream wires a SongStream over a Bridge over src, the same stack used for network bodies.
func newTestStream(t *testing.T, src ChunkSource) *SongStream {
	t.Helper()
	rt := NewRuntime(1)
	t.Cleanup(func() { rt.Close() })
	return NewSongStream(NewBridge(context.Background(), rt, src))
}

func mustRead(t *testing.T, s *SongStream, n int) string {
	t.Helper()
	buf := make([]byte, n)
	m, err := s.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("unexpected read error: %v", err)
	}
	return string(buf[:m])
}

func mustSeek(t *testing.T, s *SongStream, offset int64, whence int) int64 {
	t.Helper()
	pos, err := s.Seek(offset, whence)
	if err != nil {
		t.Fatalf("unexpected seek error: %v", err)
	}
	return pos
}

// chunked splits data into fixed-size chunks.
func chunked(data []byte, size int) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

func TestSongStream(t *testing.T) {
	t.Run("Read Seek Read Across Chunks", func(t *testing.T) {
		src := NewSliceSource([]byte("ABCD"), []byte("EFGH"), []byte(""))
		s := newTestStream(t, src)

		if got := mustRead(t, s, 4); got != "ABCD" {
			t.Fatalf("expected ABCD, got %q", got)
		}
		if src.Pulls != 1 {
			t.Errorf("expected 1 pull, got %d", src.Pulls)
		}

		if pos := mustSeek(t, s, 2, io.SeekStart); pos != 2 {
			t.Fatalf("expected cursor 2, got %d", pos)
		}

		if got := mustRead(t, s, 4); got != "CDEF" {
			t.Fatalf("expected CDEF, got %q", got)
		}
		if src.Pulls != 2 {
			t.Errorf("expected 2 pulls, got %d", src.Pulls)
		}
		if pos := mustSeek(t, s, 0, io.SeekCurrent); pos != 6 {
			t.Errorf("expected cursor 6, got %d", pos)
		}

		if got := mustRead(t, s, 4); got != "GH" {
			t.Fatalf("expected GH, got %q", got)
		}
		// The empty chunk is skipped and the next pull reports the end.
		if src.Pulls != 4 {
			t.Errorf("expected empty chunk and end pulls, got %d pulls", src.Pulls)
		}
		if pos := mustSeek(t, s, 0, io.SeekCurrent); pos != 8 {
			t.Errorf("expected cursor 8, got %d", pos)
		}

		n, err := s.Read(make([]byte, 1))
		if n != 0 || !errors.Is(err, io.EOF) {
			t.Errorf("expected (0, EOF), got (%d, %v)", n, err)
		}
		if src.Pulls != 4 {
			t.Errorf("expected no pulls after EOF, got %d", src.Pulls)
		}
	})

	t.Run("Negative Relative Seek Is Rejected", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource([]byte("ABCD")))

		_, err := s.Seek(-1, io.SeekCurrent)
		if !errors.Is(err, ErrNegativePosition) {
			t.Fatalf("expected ErrNegativePosition, got %v", err)
		}
		if pos := mustSeek(t, s, 0, io.SeekCurrent); pos != 0 {
			t.Errorf("expected cursor to stay at 0, got %d", pos)
		}

		mustRead(t, s, 4)
		if _, err := s.Seek(-5, io.SeekEnd); !errors.Is(err, ErrNegativePosition) {
			t.Errorf("expected ErrNegativePosition from end, got %v", err)
		}
		if _, err := s.Seek(-1, io.SeekStart); !errors.Is(err, ErrNegativePosition) {
			t.Errorf("expected ErrNegativePosition from start, got %v", err)
		}
		if pos := mustSeek(t, s, 0, io.SeekCurrent); pos != 4 {
			t.Errorf("expected cursor to stay at 4, got %d", pos)
		}
	})

	t.Run("Invalid Whence", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource())
		if _, err := s.Seek(0, 42); !errors.Is(err, ErrInvalidWhence) {
			t.Errorf("expected ErrInvalidWhence, got %v", err)
		}
	})

	t.Run("Overflowing Seek", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource())
		mustSeek(t, s, math.MaxInt64, io.SeekStart)
		if _, err := s.Seek(1, io.SeekCurrent); !errors.Is(err, ErrPositionOverflow) {
			t.Errorf("expected ErrPositionOverflow, got %v", err)
		}
	})

	t.Run("Seek End Is Relative To Loaded Bytes", func(t *testing.T) {
		src := NewSliceSource([]byte("ABCD"), []byte("EFGH"))
		s := newTestStream(t, src)

		mustRead(t, s, 2)
		if s.Loaded() != 2 {
			t.Fatalf("expected 2 bytes loaded, got %d", s.Loaded())
		}
		if pos := mustSeek(t, s, 0, io.SeekEnd); pos != 2 {
			t.Errorf("expected end at loaded frontier 2, got %d", pos)
		}
		if pos := mustSeek(t, s, -1, io.SeekEnd); pos != 1 {
			t.Errorf("expected 1, got %d", pos)
		}
		if got := mustRead(t, s, 3); got != "BCD" {
			t.Errorf("expected BCD, got %q", got)
		}
	})

	t.Run("Seek Past Frontier Does Not Pull", func(t *testing.T) {
		src := NewSliceSource([]byte("ABCD"), []byte("EFGH"))
		s := newTestStream(t, src)

		if pos := mustSeek(t, s, 6, io.SeekStart); pos != 6 {
			t.Fatalf("expected 6, got %d", pos)
		}
		if src.Pulls != 0 {
			t.Fatalf("expected no pulls from seek, got %d", src.Pulls)
		}

		if got := mustRead(t, s, 2); got != "GH" {
			t.Errorf("expected GH, got %q", got)
		}
		if s.Loaded() != 8 {
			t.Errorf("expected 8 bytes loaded, got %d", s.Loaded())
		}
	})

	t.Run("Seek Beyond End Of Data Reads EOF", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource([]byte("ABCD")))

		mustSeek(t, s, 100, io.SeekStart)
		n, err := s.Read(make([]byte, 4))
		if n != 0 || !errors.Is(err, io.EOF) {
			t.Errorf("expected (0, EOF), got (%d, %v)", n, err)
		}
		if !s.Complete() {
			t.Error("expected stream to be complete")
		}
		if s.Loaded() != 4 {
			t.Errorf("expected buffer to keep its final length 4, got %d", s.Loaded())
		}
	})

	t.Run("Far Seek Grows Buffer Only With Arriving Bytes", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource([]byte("ABCD")))

		mustSeek(t, s, 1<<40, io.SeekStart)
		if _, err := s.Read(make([]byte, 4)); !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
		if s.Loaded() != 4 {
			t.Errorf("expected 4 bytes loaded, got %d", s.Loaded())
		}
	})

	t.Run("Rereading Buffered Region Pulls Nothing", func(t *testing.T) {
		data := bytes.Repeat([]byte("0123456789"), 10)
		src := NewSliceSource(chunked(data, 7)...)
		s := newTestStream(t, src)

		mustSeek(t, s, 50, io.SeekStart)
		mustRead(t, s, 10)
		pulls := src.Pulls

		for i := 0; i < 5; i++ {
			mustSeek(t, s, int64(i*7), io.SeekStart)
			mustRead(t, s, 13)
		}

		if src.Pulls != pulls {
			t.Errorf("expected %d pulls after rereads, got %d", pulls, src.Pulls)
		}
		if want := (60 + 6) / 7; pulls != want {
			t.Errorf("expected %d pulls to reach offset 60, got %d", want, pulls)
		}
	})

	t.Run("Bytes Match Source Order After Seeks", func(t *testing.T) {
		data := make([]byte, 1000)
		for i := range data {
			data[i] = byte(i * 31)
		}
		s := newTestStream(t, NewSliceSource(chunked(data, 33)...))

		offsets := []int64{900, 10, 500, 499, 0, 999, 250}
		for _, off := range offsets {
			mustSeek(t, s, off, io.SeekStart)
			buf := make([]byte, 17)
			n, err := s.Read(buf)
			if err != nil {
				t.Fatalf("read at %d: %v", off, err)
			}
			want := data[off:min(off+17, int64(len(data)))]
			if !bytes.Equal(buf[:n], want) {
				t.Errorf("at offset %d expected %v, got %v", off, want, buf[:n])
			}
		}
	})

	t.Run("EOF Is Stable", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource([]byte("ABC")))

		if got, err := io.ReadAll(s); err != nil || string(got) != "ABC" {
			t.Fatalf("expected ABC, got %q (%v)", got, err)
		}
		for i := 0; i < 3; i++ {
			n, err := s.Read(make([]byte, 8))
			if n != 0 || !errors.Is(err, io.EOF) {
				t.Errorf("expected (0, EOF), got (%d, %v)", n, err)
			}
		}
	})

	t.Run("Seek Away And Back Reproduces Bytes", func(t *testing.T) {
		data := []byte("the quick brown fox jumps over the lazy dog")

		plain := newTestStream(t, NewSliceSource(chunked(data, 5)...))
		mustSeek(t, plain, 10, io.SeekStart)
		want := mustRead(t, plain, 9)

		s := newTestStream(t, NewSliceSource(chunked(data, 5)...))
		mustSeek(t, s, 10, io.SeekStart)
		mustSeek(t, s, 30, io.SeekStart)
		mustSeek(t, s, 10, io.SeekStart)
		if got := mustRead(t, s, 9); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Source Error Is Sticky", func(t *testing.T) {
		fault := errors.New("connection reset")
		src := NewSliceSource([]byte("ABCD"))
		src.Err = fault
		s := newTestStream(t, src)

		if got := mustRead(t, s, 4); got != "ABCD" {
			t.Fatalf("expected ABCD, got %q", got)
		}
		if _, err := s.Read(make([]byte, 4)); !errors.Is(err, fault) {
			t.Fatalf("expected %v, got %v", fault, err)
		}
		pulls := src.Pulls
		if _, err := s.Read(make([]byte, 4)); !errors.Is(err, fault) {
			t.Errorf("expected sticky %v, got %v", fault, err)
		}
		if src.Pulls != pulls {
			t.Errorf("expected failed fetch not to be retried, got %d pulls (was %d)", src.Pulls, pulls)
		}

		mustSeek(t, s, 0, io.SeekStart)
		if got := mustRead(t, s, 4); got != "ABCD" {
			t.Errorf("expected buffered bytes to stay readable, got %q", got)
		}
	})

	t.Run("Error Is Not Masked By Partial Data", func(t *testing.T) {
		fault := errors.New("timeout")
		src := NewSliceSource([]byte("AB"))
		src.Err = fault
		s := newTestStream(t, src)

		n, err := s.Read(make([]byte, 4))
		if n != 0 || !errors.Is(err, fault) {
			t.Errorf("expected (0, %v), got (%d, %v)", fault, n, err)
		}
		if s.Loaded() != 2 {
			t.Errorf("expected received bytes to be kept, got %d", s.Loaded())
		}
	})

	t.Run("ReadAt Leaves Cursor Alone", func(t *testing.T) {
		s := newTestStream(t, NewSliceSource([]byte("ABCD"), []byte("EFGH")))

		buf := make([]byte, 3)
		n, err := s.ReadAt(buf, 5)
		if err != nil || string(buf[:n]) != "FGH" {
			t.Fatalf("expected FGH, got %q (%v)", buf[:n], err)
		}
		if pos := mustSeek(t, s, 0, io.SeekCurrent); pos != 0 {
			t.Errorf("expected cursor 0, got %d", pos)
		}

		n, err = s.ReadAt(make([]byte, 4), 6)
		if n != 2 || !errors.Is(err, io.EOF) {
			t.Errorf("expected (2, EOF), got (%d, %v)", n, err)
		}

		if _, err := s.ReadAt(buf, -1); !errors.Is(err, ErrNegativePosition) {
			t.Errorf("expected ErrNegativePosition, got %v", err)
		}
	})

	t.Run("Plain Reader Source", func(t *testing.T) {
		s := NewSongStream(bytes.NewReader([]byte("hello world")))

		mustSeek(t, s, 6, io.SeekStart)
		if got := mustRead(t, s, 5); got != "world" {
			t.Errorf("expected world, got %q", got)
		}
		mustSeek(t, s, -11, io.SeekCurrent)
		if got := mustRead(t, s, 5); got != "hello" {
			t.Errorf("expected hello, got %q", got)
		}
	})

	t.Run("Stalled Reader", func(t *testing.T) {
		s := NewSongStream(readerFunc(func(p []byte) (int, error) { return 0, nil }))
		if _, err := s.Read(make([]byte, 1)); !errors.Is(err, io.ErrNoProgress) {
			t.Errorf("expected io.ErrNoProgress, got %v", err)
		}
	})
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
