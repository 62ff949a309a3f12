package source

import (
	"fmt"
	"slices"
	"sync"
)

// List is an observable ordered collection. Every mutating method notifies
// listeners once; Batch groups several mutations into one notification.
type List[T any] struct {
	mu        sync.RWMutex
	items     []T
	listeners listeners[func()]
	batching  int
	pending   bool
}

// NewList creates a List holding items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the element at index i.
func (l *List[T]) At(i int) T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items[i]
}

// Items returns a copy of the elements.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Snapshot implements Children.
func (l *List[T]) Snapshot() []any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]any, len(l.items))
	for i, item := range l.items {
		out[i] = item
	}
	return out
}

// AddListener implements Children.
func (l *List[T]) AddListener(fn func()) func() {
	l.mu.Lock()
	remove := l.listeners.add(fn)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		remove()
		l.mu.Unlock()
	}
}

// Append adds items to the end.
func (l *List[T]) Append(items ...T) {
	l.mutate(func() {
		l.items = append(l.items, items...)
	})
}

// Insert places items before index i.
func (l *List[T]) Insert(i int, items ...T) {
	l.mutate(func() {
		l.items = slices.Insert(l.items, i, items...)
	})
}

// Remove deletes the element at index i and returns it.
func (l *List[T]) Remove(i int) T {
	var removed T
	l.mutate(func() {
		removed = l.items[i]
		l.items = slices.Delete(l.items, i, i+1)
	})
	return removed
}

// Set replaces the element at index i.
func (l *List[T]) Set(i int, item T) {
	l.mutate(func() {
		l.items[i] = item
	})
}

// Move relocates the element at from so it ends up at index to.
func (l *List[T]) Move(from, to int) {
	l.mutate(func() {
		if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) {
			panic(fmt.Sprintf("source: move %d -> %d out of range [0,%d)", from, to, len(l.items)))
		}
		item := l.items[from]
		l.items = slices.Delete(l.items, from, from+1)
		l.items = slices.Insert(l.items, to, item)
	})
}

// Replace swaps the whole content of the list. The List itself, and so its
// identity as a child collection, is unchanged.
func (l *List[T]) Replace(items ...T) {
	l.mutate(func() {
		l.items = slices.Clone(items)
	})
}

// Batch runs fn and notifies listeners once afterwards, if fn changed
// anything. Mutations inside fn must go through the List's own methods.
func (l *List[T]) Batch(fn func(l *List[T])) {
	l.mu.Lock()
	l.batching++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.batching--
		fire := l.batching == 0 && l.pending
		if fire {
			l.pending = false
		}
		fns := l.listenersLocked(fire)
		l.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}()
	fn(l)
}

func (l *List[T]) mutate(change func()) {
	fns := func() []func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		change()
		fire := l.batching == 0
		if !fire {
			l.pending = true
		}
		return l.listenersLocked(fire)
	}()
	for _, fn := range fns {
		fn()
	}
}

func (l *List[T]) listenersLocked(fire bool) []func() {
	if !fire {
		return nil
	}
	return l.listeners.snapshot()
}
