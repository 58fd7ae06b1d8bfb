package ui

import (
	"time"

	"github.com/juju/errors"

	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/keypad"
	"github.com/podline/kiosk/internal/types"
	ui_config "github.com/podline/kiosk/internal/ui/config"
)

const (
	DefaultPoll         = 1000 * time.Millisecond
	DefaultEnrich       = 2500 * time.Millisecond
	DefaultNotice       = 5000 * time.Millisecond
	DefaultRefreshDelay = 200 * time.Millisecond
	DefaultSliderReset  = 1000 * time.Millisecond
	DefaultRejectWait   = 1000 * time.Millisecond
	DefaultPreselect    = 200 * time.Millisecond
	DefaultReveal       = 1000 * time.Millisecond
	DefaultShake        = 500 * time.Millisecond
	DefaultPinError     = 1000 * time.Millisecond

	DefaultArrowCount = 6
	DefaultSliderRest = 5
	DefaultAirPower   = 50
	DefaultPinCode    = "1234"
	DefaultPinPath    = "/station_login"
)

const (
	PriorityHigh = "high"
	PriorityLow  = "low"

	SortIDAsc    = "id-asc"
	SortIDDesc   = "id-desc"
	SortTimeAsc  = "time-asc"
	SortTimeDesc = "time-desc"

	KeypadLocal  = "local"
	KeypadRemote = "remote"
)

const (
	MsgBusy          = "Dispatch is not available. Another dispatch is currently in progress."
	MsgRaced         = "Sorry, another dispatch was initiated while you were sliding. Please try again later."
	MsgNoDestination = "Please select a destination before dispatching."
	MsgNoPod         = "No pod available at this station."
	MsgWarning       = "Dispatch not available: Another dispatch is in progress"
	MsgSendError     = "Error sending dispatch. Please try again."
	MsgAborted       = "Task Aborted!"
	MsgPodSent       = "Empty Pod Request Sent Successfully!"
	MsgPodAccepted   = "Empty Pod Request Accepted!"
	MsgPodNone       = "No empty pod request to accept."
	MsgDataCleared   = "Data Cleared!"
	MsgSelftest      = "Self test started"
	MsgEnterPin      = "Please enter PIN"
	MsgInvalidPin    = "Invalid PIN"
	MsgCheckingPin   = "Checking PIN"
	MsgOffline       = "Not connected to server"
)

// built-in sensor table: indexing sensors S1-S4, pod sensing P1-P4
var defaultSensors = []ui_config.SensorAction{
	{Name: "S1", Endpoint: "indexing", Action: "S1"},
	{Name: "S2", Endpoint: "indexing", Action: "S2"},
	{Name: "S3", Endpoint: "indexing", Action: "S3"},
	{Name: "S4", Endpoint: "indexing", Action: "S4"},
	{Name: "P1", Endpoint: "podsensing", Action: "P1"},
	{Name: "P2", Endpoint: "podsensing", Action: "P2"},
	{Name: "P3", Endpoint: "podsensing", Action: "P3"},
	{Name: "P4", Endpoint: "podsensing", Action: "P4"},
}

func applyDefaults(c *ui_config.Config) {
	if c.Arrow.Count == 0 {
		c.Arrow.Count = DefaultArrowCount
	}
	if c.Slider.Max == 0 {
		c.Slider.Max = gesture.DefaultMax
	}
	if c.Slider.Threshold == 0 {
		c.Slider.Threshold = gesture.DefaultThreshold
	}
	if c.Slider.Rest == 0 {
		c.Slider.Rest = DefaultSliderRest
	}
	if c.Dispatch.MsgBusy == "" {
		c.Dispatch.MsgBusy = MsgBusy
	}
	if c.Dispatch.MsgRaced == "" {
		c.Dispatch.MsgRaced = MsgRaced
	}
	if c.Dispatch.MsgNoDest == "" {
		c.Dispatch.MsgNoDest = MsgNoDestination
	}
	if c.Dispatch.MsgNoPod == "" {
		c.Dispatch.MsgNoPod = MsgNoPod
	}
	if c.Dispatch.MsgWarning == "" {
		c.Dispatch.MsgWarning = MsgWarning
	}
	if c.Keypad.Mode == "" {
		c.Keypad.Mode = KeypadLocal
	}
	if c.Keypad.Code == "" {
		c.Keypad.Code = DefaultPinCode
	}
	if c.Keypad.RemotePath == "" {
		c.Keypad.RemotePath = DefaultPinPath
	}
	if c.Keypad.Length == 0 {
		c.Keypad.Length = keypad.DefaultLength
	}
	if c.Keypad.Protect == nil {
		c.Keypad.Protect = []string{types.ScreenMaintenance.String(), types.ScreenClearData.String()}
	}
	if c.Maintenance.AirPower == 0 {
		c.Maintenance.AirPower = DefaultAirPower
	}
	if len(c.Maintenance.Sensors) == 0 {
		c.Maintenance.Sensors = append([]ui_config.SensorAction(nil), defaultSensors...)
	}
	for i := range c.Maintenance.Sensors {
		if c.Maintenance.Sensors[i].Action == "" {
			c.Maintenance.Sensors[i].Action = c.Maintenance.Sensors[i].Name
		}
	}
}

func allScreens() map[types.Screen]bool {
	m := make(map[types.Screen]bool, len(types.AllScreens))
	for _, s := range types.AllScreens {
		m[s] = true
	}
	return m
}

func parseScreens(names []string) (map[types.Screen]bool, error) {
	m := make(map[types.Screen]bool, len(names))
	for _, name := range names {
		s, ok := types.ParseScreen(name)
		if !ok {
			return nil, errors.NotValidf("screen=%s", name)
		}
		m[s] = true
	}
	return m, nil
}
