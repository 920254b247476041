// Package timertest provides a manually advanced timer.Clock
package timertest

import (
	"sort"
	"sync"
	"time"

	"github.com/soomgil/counsel/internal/timer"
)

// Clock only moves when Advance is called. Callbacks run on the caller's
// goroutine, in due-time order, outside the clock's lock so they may
// schedule further callbacks.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Clock
	at    time.Time
	seq   int
	f     func()
	done  bool
}

var _ timer.Clock = (*Clock)(nil)

func New(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) timer.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	c.removeLocked(t)
	return true
}

func (c *Clock) removeLocked(t *fakeTimer) {
	for i, candidate := range c.timers {
		if candidate == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing every callback that
// becomes due, including callbacks scheduled by earlier callbacks
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.removeLocked(next)
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// RunAll advances until no callbacks remain, up to limit
func (c *Clock) RunAll(limit time.Duration) {
	deadline := c.Now().Add(limit)
	for {
		c.mu.Lock()
		if len(c.timers) == 0 {
			c.mu.Unlock()
			return
		}
		sort.Slice(c.timers, func(i, j int) bool { return c.less(c.timers[i], c.timers[j]) })
		at := c.timers[0].at
		now := c.now
		c.mu.Unlock()

		if at.After(deadline) {
			return
		}
		c.Advance(at.Sub(now))
	}
}

// Pending returns the number of scheduled callbacks
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Clock) nextDueLocked(target time.Time) *fakeTimer {
	var next *fakeTimer
	for _, t := range c.timers {
		if t.at.After(target) {
			continue
		}
		if next == nil || c.less(t, next) {
			next = t
		}
	}
	return next
}

func (c *Clock) less(a, b *fakeTimer) bool {
	if a.at.Equal(b.at) {
		return a.seq < b.seq
	}
	return a.at.Before(b.at)
}
