package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/types"
)

// text accepts JSON string, number or bool as string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var x string
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*t = text(x)
		return nil
	}
	*t = text(s)
	return nil
}

type statusChanged struct {
	Status  bool `json:"status"`
	Current *struct {
		Sender   text `json:"sender"`
		Receiver text `json:"receiver"`
		From     text `json:"from"`
		To       text `json:"to"`
		TaskID   text `json:"task_id"`
	} `json:"current_dispatch"`
}

type routeData struct {
	From     text `json:"from"`
	To       text `json:"to"`
	Position text `json:"position"`
	Reason   text `json:"reason"`
	TaskID   text `json:"task_id"`
}

type stationRef struct {
	StationID text  `json:"station_id"`
	Available *bool `json:"available"`
}

func decode(p types.PushEvent, v interface{}) error {
	if len(p.Data) == 0 {
		return nil
	}
	return errors.Annotate(json.Unmarshal(p.Data, v), "decode")
}

// stationRefName turns number reference into station name; names pass through.
func stationRefName(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Trim(ref, "0123456789") == "" {
		return display.StationName(display.Number(ref))
	}
	return ref
}

func (self *UI) onPush(p types.PushEvent) {
	self.g.Metrics.RecordPush(p.Name)
	var err error
	switch p.Name {
	case types.PushConnect:
		self.m.connected = true
		self.g.Metrics.SetChannelConnected(true)
		self.log.Infof("ui channel connected")
		self.emit(types.EmitJoin, stationData{StationID: self.station.Number})
		self.refetch()
		self.checkPermission()

	case types.PushConnectError:
		self.log.Errorf("ui channel connect_error %s", string(p.Data))

	case types.PushDisconnect:
		self.m.connected = false
		self.g.Metrics.SetChannelConnected(false)
		self.log.Infof("ui channel disconnected %s", string(p.Data))

	case types.PushSystemStatusChanged:
		var d statusChanged
		if err = decode(p, &d); err != nil {
			break
		}
		self.onStatusChanged(d)

	case types.PushDispatchEvent:
		var d routeData
		if err = decode(p, &d); err != nil {
			break
		}
		if self.ownStation(string(d.From)) {
			self.notify(display.NoticeSuccess, fmt.Sprintf("Dispatch from %s to %s is now being processed!", d.From, d.To))
		}
		self.refetch()

	case types.PushDispatchQueued:
		var d routeData
		if err = decode(p, &d); err != nil {
			break
		}
		if d.From != "" && d.To != "" {
			self.notify(display.NoticeSuccess, fmt.Sprintf("Dispatch queued: From station %s to station %s, position %s", d.From, d.To, d.Position))
		}

	case types.PushDispatchRejected, types.PushDispatchFailed:
		var d routeData
		if err = decode(p, &d); err != nil {
			break
		}
		verb := "rejected"
		if p.Name == types.PushDispatchFailed {
			verb = "failed"
		}
		self.alert(fmt.Sprintf("Dispatch %s: %s", verb, d.Reason))
		self.m.slider(types.ScreenDispatch).Reset()
		self.releaseLater()

	case types.PushDispatchDone:
		var d routeData
		if err = decode(p, &d); err != nil {
			break
		}
		self.unlockDispatch()
		if d.TaskID != "" {
			self.notify(display.NoticeSuccess, fmt.Sprintf("Task %s completed", d.TaskID))
		}
		self.refetch()

	case types.PushReceiverAckCompleted:
		self.unlockDispatch()
		self.refetch()

	case types.PushStatus:
		self.log.Debugf("ui status %s", string(p.Data))

	case types.PushEmptyPodRequest:
		var req types.PodRequest
		if err = decode(p, &req); err != nil {
			break
		}
		self.onPodRequest(req)

	case types.PushEmptyPodRequestAccepted:
		var d podAccepted
		if err = decode(p, &d); err != nil {
			break
		}
		self.onPodAccepted(d)

	case types.PushPodAvailabilityChanged:
		var d stationRef
		if err = decode(p, &d); err != nil {
			break
		}
		if d.Available == nil {
			err = errors.NotValidf("available=null")
			break
		}
		if self.ownStation(string(d.StationID)) {
			self.m.dispatch.podAvailable = *d.Available
		}

	case types.PushMaintenanceEntered, types.PushMaintenanceExited:
		var d stationRef
		if err = decode(p, &d); err != nil {
			break
		}
		self.onMaintenanceNotify(string(d.StationID), p.Name == types.PushMaintenanceEntered)

	case types.PushMqttMessage:
		var d mqttMessage
		if err = decode(p, &d); err != nil {
			break
		}
		self.onSensorData(d)

	case types.PushStationDispatchStarted:
		self.showDashboard()
		self.refetch()

	default:
		self.log.Debugf("ui push unhandled name=%s", p.Name)
	}
	if err != nil {
		self.log.Errorf("ui push name=%s data=%s err=%v", p.Name, string(p.Data), err)
	}
}

// onStatusChanged applies optimistic status at once, then authoritative re-fetch follows.
func (self *UI) onStatusChanged(d statusChanged) {
	if !d.Status {
		self.applyStatus(types.Standby)
		self.unlockDispatch()
		self.refetch()
		return
	}
	st := types.Status{Active: true}
	if c := d.Current; c != nil {
		st.Sender = stationRefName(firstText(c.Sender, c.From))
		st.Receiver = stationRefName(firstText(c.Receiver, c.To))
		st.TaskID = string(c.TaskID)
	}
	self.applyStatus(st)
	self.setAllowed(false, "")
	self.showDashboard()
	self.refetch()
}

func firstText(xs ...text) string {
	for _, x := range xs {
		if x != "" {
			return string(x)
		}
	}
	return ""
}

// showDashboard follows dispatch start unless operator is inside a gated screen.
func (self *UI) showDashboard() {
	switch self.m.screen {
	case types.ScreenKeypad, types.ScreenLock:
		return
	}
	if self.protect[self.m.screen] {
		return
	}
	self.activate(types.ScreenDashboard)
}
