package core

import "sync"

// Lifetime is a scope that owns cleanup functions and nested scopes.
// Disposing a Lifetime disposes its children first, then runs its own
// cleanups in reverse registration order. A Lifetime only ever moves from
// live to disposed; Dispose is safe to call more than once and runs the
// cleanups exactly once.
//
// Example:
//
//	scope := core.NewLifetime()
//	sub := scope.Child()
//	sub.OnDispose(list.AddListener(onChange))
//	scope.Dispose() // also disposes sub and removes the listener
type Lifetime struct {
	parent    *Lifetime
	children  map[*Lifetime]struct{}
	disposers []func()
	disposed  bool
	mu        sync.Mutex
}

// NewLifetime creates a root Lifetime.
func NewLifetime() *Lifetime {
	return &Lifetime{}
}

// Child creates a Lifetime that is disposed together with l. A child of an
// already disposed Lifetime is returned disposed.
func (l *Lifetime) Child() *Lifetime {
	child := &Lifetime{parent: l}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		child.disposed = true
		return child
	}
	if l.children == nil {
		l.children = make(map[*Lifetime]struct{})
	}
	l.children[child] = struct{}{}
	return child
}

// OnDispose registers a cleanup function to be called when the Lifetime is
// disposed. Returns an unregister function that can be called to remove
// the cleanup. If the Lifetime is already disposed, cleanup runs now.
func (l *Lifetime) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		cleanup()
		return func() {}
	}
	index := len(l.disposers)
	l.disposers = append(l.disposers, cleanup)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if index < len(l.disposers) {
			l.disposers[index] = nil
		}
	}
}

// Dispose releases the scope: children first, then the scope's own
// cleanups in LIFO order.
func (l *Lifetime) Dispose() {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.disposed = true
	children := l.children
	disposers := l.disposers
	l.children = nil
	l.disposers = nil
	parent := l.parent
	l.mu.Unlock()

	for child := range children {
		child.Dispose()
	}
	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			disposers[i]()
		}
	}

	if parent != nil {
		parent.mu.Lock()
		delete(parent.children, l)
		parent.mu.Unlock()
	}
}

// IsDisposed returns true once Dispose has run.
func (l *Lifetime) IsDisposed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disposed
}
