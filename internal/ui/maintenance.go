package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	ui_config "github.com/podline/kiosk/internal/ui/config"
)

const sensorTopicPrefix = "PTS/SENSORDATA/"

type inchingBody struct {
	Direction string `json:"direction"`
}

type airBody struct {
	Action string `json:"action"`
	Power  int    `json:"power"`
}

type sensorBody struct {
	Action string `json:"action"`
}

func (self *UI) inching(direction string) {
	if direction != "moveLeft" && direction != "moveRight" {
		self.log.Errorf("ui inching invalid direction=%s", direction)
		return
	}
	self.relay("inching", inchingBody{Direction: direction}, "")
}

func (self *UI) airDivert(mode string, power int) {
	if mode != "suck" && mode != "blow" {
		self.log.Errorf("ui airdivert invalid action=%s", mode)
		return
	}
	if power < 0 {
		power = 0
	}
	if power > 100 {
		power = 100
	}
	self.m.maint.airPower = power
	self.relay("airdivert", airBody{Action: mode, Power: power}, "")
}

func (self *UI) maintenanceStop() { self.relay("stop", nil, "") }

// sensorTap maps tapped indicator through sensor action table.
func (self *UI) sensorTap(name string) {
	sa, ok := self.sensorAction(name)
	if !ok {
		self.log.Errorf("ui sensor=%s not in action table", name)
		return
	}
	if self.m.maint.busy[sa.Name] {
		self.log.Debugf("ui sensor=%s call in flight", sa.Name)
		return
	}
	var body interface{}
	if sa.Endpoint == "indexing" || sa.Endpoint == "podsensing" {
		body = sensorBody{Action: sa.Action}
	}
	self.relay(sa.Endpoint, body, sa.Name)
}

func (self *UI) sensorAction(name string) (ui_config.SensorAction, bool) {
	for _, sa := range self.config.Maintenance.Sensors {
		if strings.EqualFold(sa.Name, name) {
			return sa, true
		}
	}
	return ui_config.SensorAction{}, false
}

func (self *UI) releaseSelftest() {
	sl := self.m.slider(types.ScreenMaintenance)
	outcome, _ := sl.Release(nil)
	switch outcome {
	case gesture.OutcomeReset:
		sl.Reset()
	case gesture.OutcomeCommit:
		self.g.Metrics.RecordCommit("selftest")
		self.relay("selftest", nil, "")
		self.after(helpers.IntMillisecondDefault(self.config.Slider.ResetMs, DefaultSliderReset), sl.Reset)
	}
}

// relay issues exactly one backend call. Tapped sensor stays marked busy until call ends.
func (self *UI) relay(action string, body interface{}, sensor string) {
	station := self.station.Number
	if sensor != "" {
		self.m.maint.busy[sensor] = true
	}
	self.log.Infof("ui maintenance action=%s station=%d", action, station)
	self.async(func(ctx context.Context) func() {
		err := self.Backend.Maintenance(ctx, action, station, body)
		return func() {
			if sensor != "" {
				delete(self.m.maint.busy, sensor)
			}
			if err != nil {
				self.log.Errorf("ui maintenance action=%s err=%v", action, err)
				self.notify(display.NoticeError, fmt.Sprintf("Maintenance %s failed", action))
				return
			}
			fields := map[string]interface{}{"action": action}
			if sensor != "" {
				fields["sensor"] = sensor
			}
			self.g.Tele.Event(tele.EventMaintenance, fields)
			self.notify(display.NoticeSuccess, fmt.Sprintf("Maintenance %s OK", action))
		}
	})
}

type mqttMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// onSensorData colors indicators from pushed readings of own station.
// Read path only; never touches in-flight relay calls.
func (self *UI) onSensorData(msg mqttMessage) {
	if !strings.HasPrefix(msg.Topic, sensorTopicPrefix) {
		return
	}
	if !self.ownStation(strings.TrimPrefix(msg.Topic, sensorTopicPrefix)) {
		return
	}
	readings, err := parseSensors(msg.Data, self.m.maint.order)
	if err != nil {
		self.log.Errorf("ui sensor data topic=%s err=%v", msg.Topic, err)
		return
	}
	for name, on := range readings {
		self.m.maint.sensors[name] = on
	}
}

// parseSensors accepts JSON object name->bool|0|1, possibly wrapped in JSON string,
// or comma separated values in configured sensor order.
func parseSensors(raw json.RawMessage, order []string) (map[string]bool, error) {
	b := []byte(raw)
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		b = []byte(s)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(b, &obj); err == nil {
		out := make(map[string]bool, len(obj))
		for k, v := range obj {
			out[strings.ToUpper(k)] = truthy(v)
		}
		return out, nil
	}
	parts := strings.Split(strings.TrimSpace(string(b)), ",")
	if len(parts) == 0 || len(parts) > len(order) {
		return nil, errors.Errorf("sensor values=%d expected<=%d", len(parts), len(order))
	}
	out := make(map[string]bool, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		on, err := strconv.ParseBool(p)
		if err != nil {
			return nil, errors.Errorf("sensor %s value=%q", order[i], p)
		}
		out[order[i]] = on
	}
	return out, nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		on, _ := strconv.ParseBool(x)
		return on
	}
	return false
}

func (self *UI) onMaintenanceNotify(ref string, entered bool) {
	if ref == "" || self.ownStation(ref) {
		return
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		n = display.Number(ref)
	}
	if entered {
		self.m.maint.others[n] = true
	} else {
		delete(self.m.maint.others, n)
	}
}
