package stream

import (
	"context"
	"errors"
	"io"
	"testing"
)

type closingSource struct {
	*SliceSource
	closed bool
}

func (c *closingSource) Close() error {
	c.closed = true
	return nil
}

func TestBridge(t *testing.T) {
	t.Run("Reads Chunks In Order", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		b := NewBridge(context.Background(), rt, NewSliceSource([]byte("ABCD"), []byte("EFGH")))
		got, err := io.ReadAll(b)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(got) != "ABCDEFGH" {
			t.Errorf("expected ABCDEFGH, got %q", got)
		}
	})

	t.Run("Short Reads Keep Leftover Bytes", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		src := NewSliceSource([]byte("ABCDEF"))
		b := NewBridge(context.Background(), rt, src)

		buf := make([]byte, 4)
		n, err := b.Read(buf)
		if err != nil || n != 4 || string(buf[:n]) != "ABCD" {
			t.Fatalf("expected ABCD, got %q (%v)", buf[:n], err)
		}

		n, err = b.Read(buf)
		if err != nil || string(buf[:n]) != "EF" {
			t.Fatalf("expected EF, got %q (%v)", buf[:n], err)
		}
		if src.Pulls != 1 {
			t.Errorf("expected leftover bytes to be served without a pull, got %d pulls", src.Pulls)
		}
	})

	t.Run("End Of Data", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		src := NewSliceSource()
		b := NewBridge(context.Background(), rt, src)

		for i := 0; i < 2; i++ {
			n, err := b.Read(make([]byte, 8))
			if n != 0 || !errors.Is(err, io.EOF) {
				t.Errorf("expected (0, EOF), got (%d, %v)", n, err)
			}
		}
		if src.Pulls != 1 {
			t.Errorf("expected source to be polled once after EOF, got %d", src.Pulls)
		}
	})

	t.Run("Final Chunk Delivered With EOF", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		sent := false
		src := SourceFunc(func(ctx context.Context) ([]byte, error) {
			if sent {
				t.Error("source polled after EOF")
				return nil, io.EOF
			}
			sent = true
			return []byte("tail"), io.EOF
		})

		got, err := io.ReadAll(NewBridge(context.Background(), rt, src))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(got) != "tail" {
			t.Errorf("expected tail, got %q", got)
		}
	})

	t.Run("Empty Chunks Are Skipped", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		b := NewBridge(context.Background(), rt, NewSliceSource([]byte{}, []byte("xy"), []byte{}))
		n, err := b.Read(make([]byte, 4))
		if n != 2 || err != nil {
			t.Errorf("expected (2, nil), got (%d, %v)", n, err)
		}
	})

	t.Run("Transport Fault Is Returned Verbatim", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		fault := errors.New("connection reset")
		src := NewSliceSource([]byte("ok"))
		src.Err = fault
		b := NewBridge(context.Background(), rt, src)

		if _, err := b.Read(make([]byte, 2)); err != nil {
			t.Fatalf("expected first read to succeed, got %v", err)
		}
		if _, err := b.Read(make([]byte, 2)); err != fault {
			t.Errorf("expected %v, got %v", fault, err)
		}
	})

	t.Run("Chunk Delivered With Fault Is Kept", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		fault := errors.New("connection reset")
		pulls := 0
		src := SourceFunc(func(ctx context.Context) ([]byte, error) {
			pulls++
			return []byte("partial"), fault
		})
		b := NewBridge(context.Background(), rt, src)

		buf := make([]byte, 4)
		n, err := b.Read(buf)
		if n != 4 || err != nil || string(buf[:n]) != "part" {
			t.Fatalf("expected (part, nil), got (%q, %v)", buf[:n], err)
		}
		n, err = b.Read(buf)
		if n != 3 || err != nil || string(buf[:n]) != "ial" {
			t.Fatalf("expected (ial, nil), got (%q, %v)", buf[:n], err)
		}
		if _, err := b.Read(buf); err != fault {
			t.Errorf("expected %v after the bytes were drained, got %v", fault, err)
		}
		if _, err := b.Read(buf); err != fault {
			t.Errorf("expected %v again, got %v", fault, err)
		}
		if pulls != 1 {
			t.Errorf("expected a single pull, got %d", pulls)
		}
	})

	t.Run("Zero Length Read", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		src := NewSliceSource([]byte("abc"))
		n, err := NewBridge(context.Background(), rt, src).Read(nil)
		if n != 0 || err != nil {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
		if src.Pulls != 0 {
			t.Errorf("expected no pulls, got %d", src.Pulls)
		}
	})

	t.Run("Closed Runtime", func(t *testing.T) {
		rt := NewRuntime(1)
		rt.Close()

		_, err := NewBridge(context.Background(), rt, NewSliceSource([]byte("a"))).Read(make([]byte, 1))
		if !errors.Is(err, ErrRuntimeClosed) {
			t.Errorf("expected ErrRuntimeClosed, got %v", err)
		}
	})

	t.Run("Read From Inside Own Runtime", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		var readErr error
		err := rt.BlockOn(context.Background(), func(ctx context.Context) {
			_, readErr = NewBridge(ctx, rt, NewSliceSource([]byte("a"))).Read(make([]byte, 1))
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !errors.Is(readErr, ErrReentrant) {
			t.Errorf("expected ErrReentrant, got %v", readErr)
		}
	})

	t.Run("Close Closes Source", func(t *testing.T) {
		rt := NewRuntime(1)
		defer rt.Close()

		src := &closingSource{SliceSource: NewSliceSource()}
		if err := NewBridge(context.Background(), rt, src).Close(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !src.closed {
			t.Error("expected source to be closed")
		}
	})
}
