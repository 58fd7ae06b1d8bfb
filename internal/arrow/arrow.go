// Package arrow blinks dispatch direction indicators while a dispatch is active.
package arrow

import (
	"time"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/sched"
)

const DefaultPeriod = 500 * time.Millisecond

type Animator struct {
	count  int
	period time.Duration
	sched  sched.Scheduler
	onTick func()

	timer  sched.Timer
	toggle bool
	frame  []display.ArrowStyle
}

// New animator over count elements. onTick (optional) is called after each frame change.
func New(s sched.Scheduler, count int, period time.Duration, onTick func()) *Animator {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Animator{
		count:  count,
		period: period,
		sched:  s,
		onTick: onTick,
		frame:  display.ArrowFrame(count, false, false),
	}
}

func (self *Animator) Running() bool { return self.timer != nil }

// Start is no-op when already running or there is nothing to animate.
func (self *Animator) Start() {
	if self.timer != nil || self.count == 0 {
		return
	}
	self.toggle = false
	self.frame = display.ArrowFrame(self.count, false, false)
	self.timer = self.sched.Every(self.period, self.tick)
}

// Stop is safe to call when not running. Leaves all elements visible.
func (self *Animator) Stop() {
	if self.timer != nil {
		self.timer.Stop()
		self.timer = nil
	}
	self.toggle = false
	self.frame = display.ArrowFrame(self.count, false, false)
}

// Frame is current style of every element.
func (self *Animator) Frame() []display.ArrowStyle {
	out := make([]display.ArrowStyle, len(self.frame))
	copy(out, self.frame)
	return out
}

func (self *Animator) tick() {
	if self.timer == nil {
		return
	}
	self.frame = display.ArrowFrame(self.count, true, self.toggle)
	self.toggle = !self.toggle
	if self.onTick != nil {
		self.onTick()
	}
}
