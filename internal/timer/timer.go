// Package timer provides the scheduling primitives used by the overlay
// state machines and the summarization debounce.
package timer

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Production code uses Real, tests use
// timertest.Clock to fast-forward.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Slot holds at most one scheduled task. Scheduling replaces and cancels
// the previous task; a task that already started firing when it was
// replaced is dropped instead of running.
type Slot struct {
	mu      sync.Mutex
	clock   Clock
	current Timer
	gen     uint64
}

func NewSlot(clock Clock) *Slot {
	return &Slot{clock: clock}
}

// Schedule cancels the current task and runs f after d
func (s *Slot) Schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen

	s.current = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.current = nil
		s.mu.Unlock()

		f()
	})
}

// Cancel stops the current task. It reports whether a task was pending.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.current != nil
	s.stopLocked()
	s.gen++
	return pending
}

// Pending reports whether a task is scheduled and has not fired
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Slot) stopLocked() {
	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}
}
