package ui

import (
	"github.com/podline/kiosk/internal/types"
)

// teleCommand runs on telemetry goroutine, work is posted into the loop.
func (self *UI) teleCommand(name string, args map[string]interface{}) {
	self.log.Infof("ui tele command=%s args=%v", name, args)
	switch name {
	case "navigate":
		screenName, _ := args["screen"].(string)
		s, ok := types.ParseScreen(screenName)
		if !ok {
			self.log.Errorf("ui tele navigate invalid screen=%q", screenName)
			return
		}
		self.postFunc(func() {
			// remote operator is trusted, keypad gate is skipped
			self.activate(s)
			self.publish()
		})
	case "refresh":
		self.postFunc(func() {
			self.refetch()
			self.refreshDispatch()
			self.publish()
		})
	case "report":
		// tele forgot last state, publish sends it again
		self.postFunc(self.publish)
	default:
		self.log.Errorf("ui tele unknown command=%s", name)
	}
}
