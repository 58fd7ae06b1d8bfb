package ui

import (
	"context"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/backend"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
)

func (self *UI) clearScope(scope string) {
	if _, ok := backend.ClearScopes[scope]; !ok {
		self.log.Errorf("ui clear scope=%s invalid", scope)
		return
	}
	self.m.clear.scope = scope
}

func (self *UI) releaseClear() {
	sl := self.m.slider(types.ScreenClearData)
	outcome, _ := sl.Release(nil)
	switch outcome {
	case gesture.OutcomeReset:
		sl.Reset()
	case gesture.OutcomeCommit:
		self.commitClear()
		self.after(helpers.IntMillisecondDefault(self.config.Slider.ResetMs, DefaultSliderReset), sl.Reset)
	}
}

func (self *UI) commitClear() {
	scope := self.m.clear.scope
	self.g.Metrics.RecordCommit("clear")
	self.log.Infof("ui clear history scope=%s", scope)
	self.async(func(ctx context.Context) func() {
		err := self.Backend.ClearHistory(ctx, scope)
		return func() {
			if err != nil {
				self.log.Errorf("ui clear history scope=%s err=%v", scope, err)
				self.notify(display.NoticeError, "Clear data failed")
				return
			}
			self.g.Tele.Event(tele.EventClearData, map[string]interface{}{"scope": scope})
			if scope == "all" {
				self.m.history.entries = nil
			}
			self.notify(display.NoticeSuccess, MsgDataCleared)
		}
	})
}
