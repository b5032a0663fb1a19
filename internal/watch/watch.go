// Package watch reports changes to a single file, debounced so that editors
// writing in several steps trigger one reload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/lingo/pkg/schedule"
)

// DefaultDebounce is the quiet period used when WithDebounce is not given.
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrFileRemoved is passed to OnError when the watched file is deleted
	// or renamed away and not recreated.
	ErrFileRemoved = errors.New("watched file was removed")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("watcher already started")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("watcher closed")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before OnChange runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnChange sets the callback run after the file changed.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback for watch errors and ErrFileRemoved.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithScheduler sets the scheduler that runs the debounced OnChange.
func WithScheduler(s schedule.Scheduler) Option {
	return func(w *Watcher) {
		w.sched = s
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// Watcher watches the directory holding a file and filters events to that
// file, so replace-by-rename saves are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	onError  func(error)
	sched    schedule.Scheduler
	log      logr.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	pending schedule.Timer
	started bool
	closed  bool
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onChange: func() {},
		onError:  func(error) {},
		sched:    schedule.RealTime{},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. Events are processed on a background goroutine
// until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}
	if _, err := os.Stat(w.path); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true
	go w.run(ctx, fsw.Events, fsw.Errors)

	w.log.V(1).Info("watching file", "path", w.path, "debounce", w.debounce)
	return nil
}

// Close stops watching and cancels a pending notification. It is safe to
// call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	cancel, fsw, done := w.cancel, w.fsw, w.done
	w.fsw = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if fsw != nil {
		err = fsw.Close()
	}
	if done != nil {
		<-done
	}
	return err
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// handle reacts to one event from the watched directory.
func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove):
		w.log.V(1).Info("watched file removed", "path", w.path)
		w.onError(ErrFileRemoved)
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
		w.trigger()
	}
}

// trigger restarts the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	var timer schedule.Timer
	timer = w.sched.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed || w.pending != timer {
			w.mu.Unlock()
			return
		}
		w.pending = nil
		w.mu.Unlock()
		w.onChange()
	})
	w.pending = timer
}
