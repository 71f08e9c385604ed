package tasbih_test

import (
	"sort"
	"sync"
	"time"

	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.lk.Lock()
	defer t.clock.lk.Unlock()

	active := !t.stopped
	t.stopped = true
	return active
}

type fakeClock struct {
	lk     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 20, 5, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.lk.Lock()
	defer c.lk.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) tasbih.Timer {
	c.lk.Lock()
	defer c.lk.Unlock()

	timer := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves time forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.lk.Lock()
	target := c.now.Add(d)
	c.lk.Unlock()

	for {
		c.lk.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			return c.timers[i].deadline.Before(c.timers[j].deadline)
		})

		var due *fakeTimer
		for i, timer := range c.timers {
			if timer.stopped {
				continue
			}
			if timer.deadline.After(target) {
				break
			}
			due = timer
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}

		if due == nil {
			c.now = target
			c.timers = live(c.timers)
			c.lk.Unlock()
			return
		}

		due.stopped = true
		c.now = due.deadline
		c.lk.Unlock()

		due.fn()
	}
}

func (c *fakeClock) Pending() int {
	c.lk.Lock()
	defer c.lk.Unlock()

	pending := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			pending++
		}
	}

	return pending
}

func live(timers []*fakeTimer) []*fakeTimer {
	result := timers[:0]
	for _, timer := range timers {
		if !timer.stopped {
			result = append(result, timer)
		}
	}

	return result
}
