package reactive

import "slices"

// Option configures a Cell.
type Option[T any] func(*Cell[T])

// WithEqual makes Set a no-op when the new value equals the current one.
// Without it every Set notifies, which is what slices and maps want.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(c *Cell[T]) {
		c.equal = eq
	}
}

// Equal compares comparable values with ==.
func Equal[T comparable](a, b T) bool {
	return a == b
}

// Cell holds a value and notifies subscribers when it changes.
type Cell[T any] struct {
	scope     *Scope
	value     T
	equal     func(a, b T) bool
	subs      map[int]func(next, prev T)
	observers map[int]func()
	nextID    int
}

// NewCell creates a cell in scope s holding initial.
func NewCell[T any](s *Scope, initial T, opts ...Option[T]) *Cell[T] {
	c := &Cell[T]{
		scope:     s,
		value:     initial,
		subs:      map[int]func(next, prev T){},
		observers: map[int]func(){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and notifies subscribers, then observers. Subscribers run
// synchronously; observers (watchers) follow the scope's batching.
func (c *Cell[T]) Set(v T) {
	if c.equal != nil && c.equal(c.value, v) {
		return
	}
	prev := c.value
	c.value = v
	for _, id := range sortedKeys(c.subs) {
		if fn, ok := c.subs[id]; ok {
			fn(v, prev)
		}
	}
	for _, id := range sortedKeys(c.observers) {
		if fn, ok := c.observers[id]; ok {
			fn()
		}
	}
}

// Update sets the cell to fn applied to the current value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Subscribe calls fn with the new and previous value after every change.
func (c *Cell[T]) Subscribe(fn func(next, prev T)) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

// Observe implements Source.
func (c *Cell[T]) Observe(fn func()) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

// Scope returns the scope the cell belongs to.
func (c *Cell[T]) Scope() *Scope {
	return c.scope
}

// sortedKeys returns registration ids in registration order.
func sortedKeys[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type readOnly[T any] struct {
	v Value[T]
}

func (r readOnly[T]) Get() T { return r.v.Get() }

func (r readOnly[T]) Observe(fn func()) func() { return r.v.Observe(fn) }

// ReadOnly hides the setter of v from consumers.
func ReadOnly[T any](v Value[T]) Value[T] {
	return readOnly[T]{v: v}
}
