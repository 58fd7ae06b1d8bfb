package sched

import (
	"sort"
	"time"
)

// Manual is Scheduler with fake clock for tests.
// Go runs work and continuation synchronously.
// Timer callbacks run only inside Advance.
type Manual struct {
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	m       *Manual
	due     time.Time
	every   time.Duration
	fn      func()
	seq     uint64
	stopped bool
}

func (self *manualTimer) Stop() { self.stopped = true }

func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (self *Manual) Now() time.Time { return self.now }

func (self *Manual) After(d time.Duration, fn func()) Timer {
	return self.add(d, 0, fn)
}

func (self *Manual) Every(d time.Duration, fn func()) Timer {
	return self.add(d, d, fn)
}

func (self *Manual) Go(work func() func()) {
	if k := work(); k != nil {
		k()
	}
}

// Pending returns count of live timers.
func (self *Manual) Pending() int {
	n := 0
	for _, t := range self.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves clock forward by d, firing due timers in order.
func (self *Manual) Advance(d time.Duration) {
	end := self.now.Add(d)
	for {
		t := self.next(end)
		if t == nil {
			break
		}
		self.now = t.due
		if t.every > 0 {
			t.due = t.due.Add(t.every)
		} else {
			t.stopped = true
		}
		t.fn()
	}
	self.now = end
}

func (self *Manual) add(d, every time.Duration, fn func()) *manualTimer {
	self.seq++
	t := &manualTimer{m: self, due: self.now.Add(d), every: every, fn: fn, seq: self.seq}
	self.pending = append(self.pending, t)
	return t
}

func (self *Manual) next(end time.Time) *manualTimer {
	live := self.pending[:0]
	for _, t := range self.pending {
		if !t.stopped {
			live = append(live, t)
		}
	}
	self.pending = live
	sort.SliceStable(self.pending, func(i, j int) bool {
		a, b := self.pending[i], self.pending[j]
		if !a.due.Equal(b.due) {
			return a.due.Before(b.due)
		}
		return a.seq < b.seq
	})
	if len(self.pending) == 0 || self.pending[0].due.After(end) {
		return nil
	}
	return self.pending[0]
}
