package source

import "sync"

// Value is an observable root value. It implements Source.
type Value[T any] struct {
	mu        sync.RWMutex
	value     T
	equal     func(a, b T) bool
	listeners listeners[func(old, new T)]
}

// NewValue creates a Value that notifies on every Set.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// NewValueWithEquality creates a Value that skips notification when equal
// reports the new value as unchanged.
func NewValueWithEquality[T any](initial T, equal func(a, b T) bool) *Value[T] {
	return &Value[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies listeners.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	old := v.value
	if v.equal != nil && v.equal(old, next) {
		v.mu.Unlock()
		return
	}
	v.value = next
	fns := v.listeners.snapshot()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(old, next)
	}
}

// AddListener registers a typed listener.
func (v *Value[T]) AddListener(fn func(old, new T)) func() {
	v.mu.Lock()
	remove := v.listeners.add(fn)
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		remove()
		v.mu.Unlock()
	}
}

// Current implements Source.
func (v *Value[T]) Current() any {
	return v.Get()
}

// Observe implements Source.
func (v *Value[T]) Observe(fn func(old, new any)) func() {
	return v.AddListener(func(old, new T) {
		fn(old, new)
	})
}
