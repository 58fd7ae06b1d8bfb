// Package sched abstracts timers and background work for a single-threaded event loop.
// Callbacks always run on the loop; only Go work runs elsewhere.
package sched

import (
	"sync/atomic"
	"time"
)

type Timer interface {
	// Stop prevents pending callback. Safe to call many times.
	Stop()
}

type Scheduler interface {
	// After runs fn on the loop once after d.
	After(d time.Duration, fn func()) Timer
	// Every runs fn on the loop each d until stopped.
	Every(d time.Duration, fn func()) Timer
	// Go runs work off the loop, then the returned continuation (if not nil) on the loop.
	Go(work func() func())
	Now() time.Time
}

// Loop is Scheduler posting callbacks into a channel drained by one goroutine.
type Loop struct {
	post func(func()) bool
}

// NewLoop: post must deliver fn to loop goroutine or return false when loop is gone.
func NewLoop(post func(func()) bool) *Loop { return &Loop{post: post} }

type loopTimer struct {
	stopped int32
	t       *time.Timer
	stopch  chan struct{}
}

func (self *loopTimer) Stop() {
	if !atomic.CompareAndSwapInt32(&self.stopped, 0, 1) {
		return
	}
	if self.t != nil {
		self.t.Stop()
	}
	if self.stopch != nil {
		close(self.stopch)
	}
}

func (self *loopTimer) live() bool { return atomic.LoadInt32(&self.stopped) == 0 }

func (self *Loop) After(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		self.post(func() {
			// Stop may happen between fire and delivery
			if lt.live() {
				atomic.StoreInt32(&lt.stopped, 1)
				fn()
			}
		})
	})
	return lt
}

func (self *Loop) Every(d time.Duration, fn func()) Timer {
	lt := &loopTimer{stopch: make(chan struct{})}
	go func() {
		tick := time.NewTicker(d)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ok := self.post(func() {
					if lt.live() {
						fn()
					}
				})
				if !ok {
					return
				}
			case <-lt.stopch:
				return
			}
		}
	}()
	return lt
}

func (self *Loop) Go(work func() func()) {
	go func() {
		if k := work(); k != nil {
			self.post(k)
		}
	}()
}

func (self *Loop) Now() time.Time { return time.Now() }
