package core

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/golang/glog"

	"github.com/go-drift/docmirror/pkg/errors"
)

// ErrLoopClosed is returned when work is handed to a closed Loop.
var ErrLoopClosed = stderrors.New("loop closed")

// Loop is a serial task queue: the confinement context every document
// mutation runs on. Any goroutine may Dispatch; only the goroutine that is
// currently draining (Run or Drain) executes tasks, one at a time, in FIFO
// order. A task never interleaves with another task.
//
// Loop is the explicit form of "run this later on the UI thread": hosts with
// their own event loop call Drain from it, others call Run on a dedicated
// goroutine.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	closed   bool
	draining bool

	// OnNeedsDrain is called after a task is queued on an idle loop. Hosts
	// that drive the loop from their own event loop use it to schedule a
	// Drain.
	OnNeedsDrain func()
}

// NewLoop creates an empty Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch queues fn. Returns false if fn is nil or the loop is closed.
func (l *Loop) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	notify := len(l.queue) == 1 && !l.draining
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	if notify && l.OnNeedsDrain != nil {
		l.OnNeedsDrain()
	}
	return true
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks queued by the tasks themselves. It returns the
// number of tasks run. A nested Drain from inside a task is a no-op.
func (l *Loop) Drain() int {
	l.mu.Lock()
	if l.draining {
		l.mu.Unlock()
		return 0
	}
	l.draining = true
	l.mu.Unlock()

	ran := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.draining = false
			l.mu.Unlock()
			return ran
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.run(task)
		ran++
	}
}

func (l *Loop) run(task func()) {
	defer errors.Recover("core.Loop.run")
	task()
}

// Run drains the loop whenever work arrives until ctx is done or the loop
// is closed. It returns ctx.Err() or ErrLoopClosed.
func (l *Loop) Run(ctx context.Context) error {
	glog.V(2).Infof("[loop] run start")
	defer glog.V(2).Infof("[loop] run stop")
	for {
		l.Drain()
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return ErrLoopClosed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Call dispatches fn and waits for it to finish. It must not be called
// from a task running on the same loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Dispatch(func() {
		defer close(done)
		fn()
	}) {
		return errors.New("core.Loop.Call", errors.KindDispatch, ErrLoopClosed)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks. Tasks already queued still run on the next
// Drain.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
