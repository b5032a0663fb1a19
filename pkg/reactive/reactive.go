// Package reactive provides observable value cells and a batched watch
// combinator. A Scope and every cell created in it must be driven from a
// single goroutine; use schedule.Loop to marshal work from other goroutines.
package reactive

// Source is anything that can report changes.
type Source interface {
	// Observe registers fn to be called after every change. The returned
	// function removes the registration.
	Observe(fn func()) (cancel func())
}

// Value is a readable, observable value.
type Value[T any] interface {
	Source
	Get() T
}

// Var is a readable and writable observable value.
type Var[T any] interface {
	Value[T]
	Set(v T)
}

// Scope batches change notifications for the cells created in it.
type Scope struct {
	depth    int
	flushing bool
	queue    []*watcher
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Batch runs fn and defers watcher notifications until the outermost batch
// returns. A watcher observing several cells changed inside the batch runs
// once.
func (s *Scope) Batch(fn func()) {
	s.depth++
	defer func() {
		s.depth--
		if s.depth == 0 {
			s.flush()
		}
	}()
	fn()
}

// Watch calls fn once per flush in which any of sources changed.
// The returned function stops watching.
func (s *Scope) Watch(fn func(), sources ...Source) (stop func()) {
	w := &watcher{fn: fn}
	cancels := make([]func(), 0, len(sources))
	for _, src := range sources {
		cancels = append(cancels, src.Observe(func() { s.enqueue(w) }))
	}
	return func() {
		w.stopped = true
		for _, c := range cancels {
			c()
		}
	}
}

type watcher struct {
	fn      func()
	queued  bool
	stopped bool
}

func (s *Scope) enqueue(w *watcher) {
	if w.stopped || w.queued {
		return
	}
	w.queued = true
	s.queue = append(s.queue, w)
	if s.depth == 0 {
		s.flush()
	}
}

// flush drains the queue. Watchers that change cells while running queue
// further watchers, which run in the same flush.
func (s *Scope) flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	defer func() { s.flushing = false }()
	for len(s.queue) > 0 {
		w := s.queue[0]
		s.queue = s.queue[1:]
		w.queued = false
		if !w.stopped {
			w.fn()
		}
	}
}
