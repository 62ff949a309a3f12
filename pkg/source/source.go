// Package source defines the data side of a mirrored document: the root
// value provider and the ordered child collections hanging off each value.
//
// Both List and Value are safe for use from any goroutine. Listeners run
// synchronously on the goroutine that made the change; consumers that need
// confinement (the mirror does) redispatch from inside the listener.
package source

// Source provides the root value of a tree and reports when it is replaced.
type Source interface {
	// Current returns the current root value.
	Current() any
	// Observe registers fn for root replacements and returns a function
	// that removes it.
	Observe(fn func(old, new any)) (remove func())
}

// Children is an ordered, identity-stable collection of child values. Two
// Children are the same collection exactly when they compare equal with
// ==, so implementations should be pointer types.
type Children interface {
	// Snapshot returns the current elements in order. The returned slice
	// belongs to the caller.
	Snapshot() []any
	// AddListener registers fn for changes within the collection and
	// returns a function that removes it.
	AddListener(fn func()) (remove func())
}

// Resolver returns the child collection of a value, or nil when the value
// has no children.
type Resolver func(value any) Children

// listeners is a registration list shared by List and Value. Removal
// leaves a hole so indexes handed out stay valid.
type listeners[F any] struct {
	fns []*F
}

func (l *listeners[F]) add(fn F) func() {
	entry := &fn
	l.fns = append(l.fns, entry)
	return func() {
		for i, existing := range l.fns {
			if existing == entry {
				l.fns[i] = nil
				return
			}
		}
	}
}

func (l *listeners[F]) snapshot() []F {
	out := make([]F, 0, len(l.fns))
	live := l.fns[:0]
	for _, fn := range l.fns {
		if fn != nil {
			out = append(out, *fn)
			live = append(live, fn)
		}
	}
	l.fns = live
	return out
}
