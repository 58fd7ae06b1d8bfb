package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juju/errors"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
)

var (
	errRaced  = errors.New("dispatch raced")
	errNoPod  = errors.New("no pod")
	errNoDest = errors.New("no destination")
)

type dispatchData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Priority string `json:"priority"`
}

type abortData struct {
	Type    string `json:"type"`
	Aborted bool   `json:"aborted"`
}

// refreshDispatch loads destinations, dispatch permission and pod availability.
// Failures fall back to empty list and disabled controls.
func (self *UI) refreshDispatch() {
	own := self.station.Name
	self.async(func(ctx context.Context) func() {
		ds, err := self.Backend.Destinations(ctx, own)
		return func() {
			if err != nil {
				self.log.Errorf("ui destinations err=%v", err)
				ds = nil
			}
			self.m.dispatch.destinations = ds
		}
	})
	self.checkPermission()
	self.checkPod()
}

func (self *UI) checkPermission() {
	self.async(func(ctx context.Context) func() {
		allowed, reason, err := self.Backend.DispatchAllowed(ctx)
		return func() {
			if err != nil {
				self.log.Errorf("ui check_dispatch_allowed err=%v", err)
				allowed, reason = false, ""
			}
			if self.m.dispatch.pending {
				self.log.Debugf("ui check_dispatch_allowed ignored, dispatch pending confirmation allowed=%t", allowed)
				return
			}
			self.setAllowed(allowed, reason)
		}
	})
}

func (self *UI) checkPod() {
	station := self.station.Number
	self.async(func(ctx context.Context) func() {
		available, err := self.Backend.PodAvailable(ctx, station)
		return func() {
			if err != nil {
				self.log.Errorf("ui check_pod_available err=%v", err)
				available = false
			}
			self.m.dispatch.podAvailable = available
		}
	})
}

func (self *UI) setAllowed(allowed bool, reason string) {
	if self.releaseTmr != nil && !allowed {
		self.releaseTmr.Stop()
		self.releaseTmr = nil
	}
	self.m.dispatch.allowed = allowed
	self.m.dispatch.reason = reason
}

// selectDestination by name (Value) or number (Int). Ignored while dispatch is not allowed.
func (self *UI) selectDestination(a types.Action) {
	if !self.m.dispatch.allowed {
		self.log.Debugf("ui select ignored, dispatch not allowed")
		return
	}
	for _, d := range self.m.dispatch.destinations {
		if (a.Value != "" && d.Name == a.Value) || (a.Value == "" && a.Int != 0 && d.Number == a.Int) {
			self.m.dispatch.selected = d.Name
			return
		}
	}
	self.log.Errorf("ui select unknown destination value=%s number=%d", a.Value, a.Int)
}

func (self *UI) togglePriority() {
	if !self.m.dispatch.allowed {
		return
	}
	self.m.dispatch.priorityHigh = !self.m.dispatch.priorityHigh
}

func (self *UI) slidePress(x float64) {
	sl := self.m.slider(self.m.screen)
	if sl == nil {
		self.log.Debugf("ui slide on screen=%s without slider", self.m.screen.String())
		return
	}
	gate := true
	if self.m.screen == types.ScreenDispatch {
		gate = self.m.dispatch.allowed && self.m.dispatch.podAvailable
	}
	if err := sl.Press(x, gate); err != nil {
		if !self.m.dispatch.allowed {
			self.alert(self.config.Dispatch.MsgBusy)
		} else {
			self.alert(self.config.Dispatch.MsgNoPod)
		}
	}
}

func (self *UI) slideMove(x float64) {
	if sl := self.m.slider(self.m.screen); sl != nil {
		sl.Move(x)
	}
}

func (self *UI) slideRelease() {
	switch self.m.screen {
	case types.ScreenDispatch:
		self.releaseDispatch()
	case types.ScreenMaintenance:
		self.releaseSelftest()
	case types.ScreenClearData:
		self.releaseClear()
	}
}

// releaseDispatch rechecks every precondition at release time, not at press time.
func (self *UI) releaseDispatch() {
	sl := self.m.slider(types.ScreenDispatch)
	d := &self.m.dispatch
	outcome, err := sl.Release(func() error {
		switch {
		case !d.allowed:
			return errRaced
		case !d.podAvailable:
			return errNoPod
		case d.selected == "":
			return errNoDest
		}
		return nil
	})
	switch outcome {
	case gesture.OutcomeNone:
	case gesture.OutcomeReset:
		sl.Reset()
	case gesture.OutcomeBlocked:
		sl.Reset()
		switch errors.Cause(err) {
		case errRaced:
			self.alert(self.config.Dispatch.MsgRaced)
		case errNoPod:
			self.alert(self.config.Dispatch.MsgNoPod)
		default:
			self.notify(display.NoticeError, self.config.Dispatch.MsgNoDest)
		}
	case gesture.OutcomeCommit:
		self.commitDispatch(sl)
	}
}

// commitDispatch emits exactly one dispatch request and locks further dispatch
// until server confirms.
func (self *UI) commitDispatch(sl *gesture.Slider) {
	d := &self.m.dispatch
	dest, ok := d.find(d.selected)
	if !ok {
		dest = types.Destination{Name: d.selected, Code: display.Code(d.selected), Number: display.Number(d.selected)}
	}
	data := dispatchData{From: self.station.Name, To: dest.Name, Priority: priorityText(d.priorityHigh)}
	d.allowed = false
	d.pending = true
	if !self.emit(types.EmitDispatch, data) {
		self.notify(display.NoticeError, MsgSendError)
		d.allowed, d.pending = true, false
		sl.Reset()
		return
	}
	self.g.Metrics.RecordCommit("dispatch")
	self.g.Tele.Event(tele.EventDispatch, map[string]interface{}{"from": data.From, "to": data.To, "priority": data.Priority})
	self.notify(display.NoticeSuccess, fmt.Sprintf("Dispatch from %s to %s", self.station.Code, dest.Code))
	d.selected = ""
	self.after(helpers.IntMillisecondDefault(self.config.Slider.ResetMs, DefaultSliderReset), sl.Reset)
	self.after(helpers.IntMillisecondDefault(self.config.RefreshDelayMs, DefaultRefreshDelay), func() {
		self.activate(types.ScreenDashboard)
	})
}

// abort ends current dispatch and shows standby immediately.
func (self *UI) abort() {
	if !self.emit(types.EmitDispatchCompleted, abortData{Type: types.EmitDispatchCompleted, Aborted: true}) {
		self.notify(display.NoticeError, MsgOffline)
		return
	}
	self.g.Metrics.RecordCommit("abort")
	self.g.Tele.Event(tele.EventAbort, map[string]interface{}{"task_id": self.m.status.TaskID})
	self.applyStatus(types.Standby)
	self.notify(display.NoticeInfo, MsgAborted)
}

// releaseLater restores dispatch permission after rejection.
func (self *UI) releaseLater() {
	if self.releaseTmr != nil {
		self.releaseTmr.Stop()
	}
	self.releaseTmr = self.after(helpers.IntMillisecondDefault(self.config.Dispatch.RejectReleaseMs, DefaultRejectWait), func() {
		self.releaseTmr = nil
		self.unlockDispatch()
	})
}

// unlockDispatch ends the post-commit lock on server confirmation.
func (self *UI) unlockDispatch() {
	self.m.dispatch.pending = false
	self.setAllowed(true, "")
}

// ownStation matches push payload station reference: name or number.
func (self *UI) ownStation(ref string) bool {
	if ref == "" {
		return false
	}
	if ref == self.station.Name {
		return true
	}
	n, err := strconv.Atoi(ref)
	return err == nil && n == self.station.Number
}
