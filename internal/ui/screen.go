package ui

import (
	"github.com/podline/kiosk/internal/types"
)

// navigate is user intent to open screen s; protected screens go through keypad.
func (self *UI) navigate(s types.Screen) {
	self.m.alert = ""
	if !self.m.present[s] {
		self.log.Errorf("ui navigate screen=%s not present", s.String())
		return
	}
	if self.protect[s] && s != self.m.screen && self.m.present[types.ScreenKeypad] {
		self.m.nav = s
		self.m.keypad.target = s
		self.activate(types.ScreenKeypad)
		return
	}
	self.activate(s)
}

// activate hides every screen then shows exactly s.
// Leaving maintenance emits exit notification while it is still the active screen.
// Absent screen is a no-op.
func (self *UI) activate(s types.Screen) {
	if !self.m.present[s] {
		self.log.Debugf("ui activate screen=%s not present", s.String())
		return
	}
	prev := self.m.screen
	if prev == types.ScreenMaintenance && s != types.ScreenMaintenance {
		self.emitMaintenance(types.EmitMaintenanceExited)
	}
	if prev != s {
		self.leave(prev)
	}
	self.m.screen = s
	if s != types.ScreenKeypad {
		self.m.nav = s
	}
	self.log.Infof("screen=%s", s.String())
	if prev != s && s == types.ScreenMaintenance {
		self.emitMaintenance(types.EmitMaintenanceEntered)
	}
	self.enter(s)
}

func (self *UI) leave(s types.Screen) {
	if sl := self.m.slider(s); sl != nil {
		sl.Reset()
	}
	switch s {
	case types.ScreenDispatch:
		self.m.dispatch.selected = ""
	case types.ScreenKeypad:
		self.resetKeypad()
	}
}

func (self *UI) enter(s types.Screen) {
	switch s {
	case types.ScreenDashboard:
		self.refetch()
	case types.ScreenDispatch:
		self.refreshDispatch()
	case types.ScreenHistory:
		self.loadHistory()
	case types.ScreenKeypad:
		self.resetKeypad()
	}
}

type stationData struct {
	StationID int `json:"station_id"`
}

func (self *UI) emitMaintenance(name string) {
	self.emit(name, stationData{StationID: self.station.Number})
}
