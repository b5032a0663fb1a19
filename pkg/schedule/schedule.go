// Package schedule abstracts delayed callbacks so that debounce timers can be
// driven by wall-clock time, a manual test clock, or a host event loop.
package schedule

import (
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealTime schedules callbacks with time.AfterFunc. When Post is set the
// callback is handed to Post (for example a Loop) instead of running on the
// timer goroutine.
type RealTime struct {
	Post func(fn func())
}

// AfterFunc implements Scheduler.
func (r RealTime) AfterFunc(d time.Duration, fn func()) Timer {
	t := &realTimer{}
	t.timer = time.AfterFunc(d, func() {
		if r.Post == nil {
			t.run(fn)
			return
		}
		r.Post(func() { t.run(fn) })
	})
	return t
}

type realTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    bool
}

// run executes fn unless the timer was stopped after it fired but before
// the posted callback got its turn.
func (t *realTimer) run(fn func()) {
	t.mu.Lock()
	if t.stopped || t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.mu.Unlock()
	fn()
}

func (t *realTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.done {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
