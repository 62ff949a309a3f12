package core

import (
	"reflect"
	"testing"
)

func TestLifetime_DisposeOrder(t *testing.T) {
	var order []string
	root := NewLifetime()
	root.OnDispose(func() { order = append(order, "root-1") })
	a := root.Child()
	a.OnDispose(func() { order = append(order, "a") })
	grand := a.Child()
	grand.OnDispose(func() { order = append(order, "grand") })
	root.OnDispose(func() { order = append(order, "root-2") })

	root.Dispose()

	want := []string{"grand", "a", "root-2", "root-1"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("dispose order = %v, want %v", order, want)
	}
	if !a.IsDisposed() || !grand.IsDisposed() {
		t.Error("children should be disposed with their parent")
	}
}

func TestLifetime_DisposeOnce(t *testing.T) {
	calls := 0
	l := NewLifetime()
	l.OnDispose(func() { calls++ })

	l.Dispose()
	l.Dispose()

	if calls != 1 {
		t.Errorf("cleanup ran %d times, want 1", calls)
	}
}

func TestLifetime_Unregister(t *testing.T) {
	calls := 0
	l := NewLifetime()
	remove := l.OnDispose(func() { calls++ })
	remove()

	l.Dispose()
	if calls != 0 {
		t.Errorf("removed cleanup ran %d times", calls)
	}
}

func TestLifetime_ChildDisposedAlone(t *testing.T) {
	parentCalls, childCalls := 0, 0
	parent := NewLifetime()
	parent.OnDispose(func() { parentCalls++ })
	child := parent.Child()
	child.OnDispose(func() { childCalls++ })

	child.Dispose()
	if parent.IsDisposed() {
		t.Fatal("disposing a child must not dispose the parent")
	}

	parent.Dispose()
	if childCalls != 1 || parentCalls != 1 {
		t.Errorf("calls = child %d, parent %d; want 1 each", childCalls, parentCalls)
	}
}

func TestLifetime_AfterDispose(t *testing.T) {
	l := NewLifetime()
	l.Dispose()

	ran := false
	l.OnDispose(func() { ran = true })
	if !ran {
		t.Error("cleanup registered after Dispose should run immediately")
	}

	child := l.Child()
	if !child.IsDisposed() {
		t.Error("child of a disposed lifetime should start disposed")
	}
}
