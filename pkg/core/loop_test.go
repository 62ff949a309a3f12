package core

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/go-drift/docmirror/pkg/errors"
)

func TestLoop_DrainRunsInOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := range 5 {
		l.Dispatch(func() { got = append(got, i) })
	}

	if n := l.Drain(); n != 5 {
		t.Errorf("Drain ran %d tasks, want 5", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", got)
		}
	}
	if l.Pending() != 0 {
		t.Errorf("pending = %d after drain", l.Pending())
	}
}

func TestLoop_TasksQueuedByTasksRunInSameDrain(t *testing.T) {
	l := NewLoop()
	var got []string
	l.Dispatch(func() {
		got = append(got, "outer")
		l.Dispatch(func() { got = append(got, "inner") })
		if n := l.Drain(); n != 0 {
			t.Errorf("nested Drain ran %d tasks", n)
		}
	})

	l.Drain()
	if len(got) != 2 || got[1] != "inner" {
		t.Errorf("got %v", got)
	}
}

func TestLoop_PanicDoesNotStopDrain(t *testing.T) {
	h := &recordingHandler{}
	errors.SetHandler(h)
	defer errors.SetHandler(nil)

	l := NewLoop()
	ran := false
	l.Dispatch(func() { panic("boom") })
	l.Dispatch(func() { ran = true })
	l.Drain()

	if !ran {
		t.Error("task after a panicking task did not run")
	}
	if len(h.panics) != 1 || h.panics[0].Op != "core.Loop.run" {
		t.Errorf("panics = %+v", h.panics)
	}
}

func TestLoop_OnNeedsDrain(t *testing.T) {
	l := NewLoop()
	calls := 0
	l.OnNeedsDrain = func() { calls++ }

	l.Dispatch(func() {})
	l.Dispatch(func() {})
	if calls != 1 {
		t.Errorf("OnNeedsDrain called %d times for one idle->busy transition", calls)
	}
	l.Drain()
	l.Dispatch(func() {})
	if calls != 2 {
		t.Errorf("OnNeedsDrain called %d times, want 2", calls)
	}
}

func TestLoop_RunAndCall(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	var runErr error
	go func() {
		defer wg.Done()
		runErr = l.Run(ctx)
	}()

	counter := 0
	for range 10 {
		if err := l.Call(ctx, func() { counter++ }); err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}

	l.Close()
	wg.Wait()
	if !stderrors.Is(runErr, ErrLoopClosed) {
		t.Errorf("Run returned %v, want ErrLoopClosed", runErr)
	}

	err := l.Call(ctx, func() {})
	if !stderrors.Is(err, ErrLoopClosed) {
		t.Errorf("Call on closed loop = %v", err)
	}
	if l.Dispatch(func() {}) {
		t.Error("Dispatch on closed loop should fail")
	}
}

func TestLoop_CallHonoursContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Nobody drains, so Call can only end through the context.
	err := l.Call(ctx, func() {})
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call = %v, want deadline exceeded", err)
	}
}

type recordingHandler struct {
	errs   []*errors.MirrorError
	panics []*errors.PanicError
}

func (h *recordingHandler) HandleError(err *errors.MirrorError) { h.errs = append(h.errs, err) }
func (h *recordingHandler) HandlePanic(err *errors.PanicError)  { h.panics = append(h.panics, err) }
