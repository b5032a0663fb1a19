package schedule

import (
	"sort"
	"time"
)

// Manual is a deterministic scheduler for tests. Time only moves when
// Advance is called, and due callbacks run on the caller's goroutine.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManual returns a Manual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	m        *Manual
	deadline time.Duration
	seq      int
	fn       func()
	active   bool
}

func (t *manualTimer) Stop() bool {
	if !t.active {
		return false
	}
	t.active = false
	t.m.remove(t)
	return true
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	t := &manualTimer{m: m, deadline: m.now + d, seq: m.seq, fn: fn, active: true}
	m.seq++
	m.timers = append(m.timers, t)
	return t
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// Advance moves time forward by d, running every timer that comes due in
// deadline order. Timers scheduled by callbacks run too if they fall inside
// the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		next.active = false
		m.remove(next)
		next.fn()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline == m.timers[j].deadline {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline < m.timers[j].deadline
	})
	if m.timers[0].deadline > target {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) remove(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}
