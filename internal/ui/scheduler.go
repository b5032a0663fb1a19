package ui

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/lingo/pkg/schedule"
)

// debounceMsg fires a timer registered with teaScheduler. The id correlates
// the tick with the callback, so stopped timers are simply forgotten.
type debounceMsg struct {
	id int
}

// teaScheduler turns timers into tea.Tick commands. Callbacks run inside
// Update when the matching debounceMsg arrives, which keeps every reactive
// cell on the bubbletea goroutine.
type teaScheduler struct {
	nextID int
	timers map[int]func()
	cmds   []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{timers: map[int]func(){}}
}

type teaTimer struct {
	s  *teaScheduler
	id int
}

func (t *teaTimer) Stop() bool {
	if _, ok := t.s.timers[t.id]; !ok {
		return false
	}
	delete(t.s.timers, t.id)
	return true
}

// AfterFunc implements schedule.Scheduler.
func (s *teaScheduler) AfterFunc(d time.Duration, fn func()) schedule.Timer {
	s.nextID++
	id := s.nextID
	s.timers[id] = fn
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	}))
	return &teaTimer{s: s, id: id}
}

// fire runs the callback for id unless it was stopped.
func (s *teaScheduler) fire(id int) {
	fn, ok := s.timers[id]
	if !ok {
		return
	}
	delete(s.timers, id)
	fn()
}

// pending reports whether any timer is still waiting.
func (s *teaScheduler) pending() bool {
	return len(s.timers) > 0
}

// drain returns and clears the commands queued since the last call.
func (s *teaScheduler) drain() []tea.Cmd {
	cmds := s.cmds
	s.cmds = nil
	return cmds
}
