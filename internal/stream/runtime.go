package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrRuntimeClosed = errors.New("stream: runtime closed")
	ErrReentrant     = errors.New("stream: blocking call from inside its own runtime")
)

type runtimeKey struct{}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	err  error
	done chan struct{}
}

// Runtime runs network steps on a pool of worker goroutines.
//
// A single Runtime may be shared by any number of bridges. The pool keeps a fixed
// number of idle workers and starts an extra goroutine whenever none is free, so a
// step that blocks never delays another stream's step. Tasks never outlive
// [Runtime.Close]: once it returns, every goroutine the runtime started has exited.
type Runtime struct {
	tasks  chan *task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

// NewRuntime starts a Runtime with the given number of standing workers (minimum 1).
func NewRuntime(workers int) *Runtime {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runtime{
		tasks:  make(chan *task),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}

	return r
}

// BlockOn runs fn on an idle worker, or on a new goroutine when every worker is busy,
// and blocks until it returns.
//
// fn receives a context that is cancelled when either ctx is done or the runtime is closed.
// BlockOn must not be called from a goroutine that is itself running a task of this runtime.
func (r *Runtime) BlockOn(ctx context.Context, fn func(ctx context.Context)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.owns(ctx) {
		return ErrReentrant
	}
	if r.Closed() {
		return ErrRuntimeClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &task{ctx: ctx, fn: fn, done: make(chan struct{})}

	// tasks is unbuffered: a send only succeeds when an idle worker takes it.
	select {
	case r.tasks <- t:
	default:
		if err := r.spawn(t); err != nil {
			return err
		}
	}

	<-t.done
	return t.err
}

// spawn runs t on a goroutine of its own, counted by wg so Close joins it.
func (r *Runtime) spawn(t *task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(t)
	}()
	return nil
}

// Close stops the workers and waits for running tasks to return.
func (r *Runtime) Close() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.cancel()
		r.mu.Unlock()
		r.wg.Wait()
	})
	return nil
}

// Closed reports whether [Runtime.Close] has been called.
func (r *Runtime) Closed() bool {
	return r.ctx.Err() != nil
}

// Scope derives a context from ctx that is also cancelled when the runtime closes.
//
// Use it for work that outlives a single task, such as an HTTP response body read across many pulls.
func (r *Runtime) Scope(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}
}

func (r *Runtime) owns(ctx context.Context) bool {
	owner, _ := ctx.Value(runtimeKey{}).(*Runtime)
	return owner == r
}

func (r *Runtime) work() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case t := <-r.tasks:
			r.run(t)
		}
	}
}

func (r *Runtime) run(t *task) {
	defer close(t.done)

	ctx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	defer func() {
		if p := recover(); p != nil {
			t.err = fmt.Errorf("stream: task panicked: %v", p)
		}
	}()

	t.fn(context.WithValue(ctx, runtimeKey{}, r))
}
