package ui

import (
	"sort"
	"time"

	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/types"
)

// View is declarative description of the whole kiosk screen.
// Built from model by render, handed to Renderer after every handled event.
type View struct {
	Screen    types.Screen          `json:"screen"`
	Nav       types.Screen          `json:"nav"`
	Visible   map[types.Screen]bool `json:"visible"`
	Station   types.Station         `json:"station"`
	Connected bool                  `json:"connected"`

	Status      StatusView      `json:"status"`
	Dispatch    DispatchView    `json:"dispatch"`
	Pod         PodView         `json:"pod"`
	Maintenance MaintenanceView `json:"maintenance"`
	Keypad      KeypadView      `json:"keypad"`
	History     HistoryView     `json:"history"`
	ClearData   ClearDataView   `json:"clear_data"`

	Notices []NoticeView `json:"notices,omitempty"`
	Alert   string       `json:"alert,omitempty"`
}

type StatusView struct {
	Active       bool                 `json:"active"`
	Sender       string               `json:"sender"`
	Receiver     string               `json:"receiver"`
	TaskID       string               `json:"task_id"`
	SenderCode   string               `json:"sender_code"`
	ReceiverCode string               `json:"receiver_code"`
	TaskLabel    string               `json:"task_label"`
	Arrows       []display.ArrowStyle `json:"arrows"`
	Blinking     bool                 `json:"blinking"`
}

type DestinationView struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Number   int    `json:"number"`
	Selected bool   `json:"selected"`
	Disabled bool   `json:"disabled"`
}

type SliderView struct {
	Left     float64 `json:"left"`
	Dragging bool    `json:"dragging"`
	Disabled bool    `json:"disabled"`
}

type DispatchView struct {
	Allowed      bool              `json:"allowed"`
	PodAvailable bool              `json:"pod_available"`
	Actionable   bool              `json:"actionable"`
	Warning      string            `json:"warning,omitempty"`
	Destinations []DestinationView `json:"destinations"`
	Selected     string            `json:"selected,omitempty"`
	Priority     string            `json:"priority"`
	Slider       SliderView        `json:"slider"`
}

type PodView struct {
	Incoming      bool   `json:"incoming"`
	Requester     string `json:"requester,omitempty"`
	RequesterCode string `json:"requester_code,omitempty"`
	RequestTime   string `json:"request_time,omitempty"`
	Outgoing      bool   `json:"outgoing"`
}

type SensorView struct {
	Name  string `json:"name"`
	On    bool   `json:"on"`
	Color string `json:"color"`
	Busy  bool   `json:"busy"`
}

type MaintenanceView struct {
	Sensors  []SensorView `json:"sensors"`
	AirPower int          `json:"air_power"`
	Others   []int        `json:"others,omitempty"`
	Slider   SliderView   `json:"slider"`
}

type KeypadView struct {
	Target   types.Screen `json:"target"`
	Dots     string       `json:"dots"`
	Message  string       `json:"message"`
	Shake    bool         `json:"shake"`
	Invalid  bool         `json:"invalid"`
	Revealed bool         `json:"revealed"`
	Waiting  bool         `json:"waiting"`
}

type HistoryView struct {
	Entries []types.HistoryEntry `json:"entries"`
	Sort    string               `json:"sort"`
	Loading bool                 `json:"loading"`
	Saved   string               `json:"saved,omitempty"`
}

type ClearDataView struct {
	Scope  string     `json:"scope"`
	Slider SliderView `json:"slider"`
}

type NoticeView struct {
	Text  string             `json:"text"`
	Kind  display.NoticeKind `json:"kind"`
	Color string             `json:"color"`
}

// render is pure: same model, arrow state and geometry always produce equal View.
func render(m *model, station types.Station, arrows []display.ArrowStyle, blinking bool, rest float64) *View {
	v := &View{
		Screen:    m.screen,
		Nav:       m.nav,
		Visible:   make(map[types.Screen]bool, len(m.present)),
		Station:   station,
		Connected: m.connected,
		Alert:     m.alert,
	}
	for s := range m.present {
		v.Visible[s] = s == m.screen
	}

	v.Status = StatusView{Active: m.status.Active, Arrows: arrows, Blinking: blinking}
	if m.status.Active {
		v.Status.Sender = m.status.Sender
		v.Status.Receiver = m.status.Receiver
		v.Status.TaskID = m.status.TaskID
		v.Status.SenderCode = display.Code(m.status.Sender)
		v.Status.ReceiverCode = display.Code(m.status.Receiver)
		v.Status.TaskLabel = display.TaskLabel(m.status.TaskID)
	}

	d := &m.dispatch
	v.Dispatch = DispatchView{
		Allowed:      d.allowed,
		PodAvailable: d.podAvailable,
		Actionable:   d.actionable(),
		Selected:     d.selected,
		Priority:     priorityText(d.priorityHigh),
		Destinations: make([]DestinationView, len(d.destinations)),
		Slider:       sliderView(m.slider(types.ScreenDispatch), rest, !(d.allowed && d.podAvailable)),
	}
	switch {
	case !d.allowed && d.reason != "":
		v.Dispatch.Warning = d.reason
	case !d.allowed:
		v.Dispatch.Warning = d.msgWarning
	case !d.podAvailable:
		v.Dispatch.Warning = d.msgNoPod
	}
	for i, x := range d.destinations {
		v.Dispatch.Destinations[i] = DestinationView{
			Name:     x.Name,
			Code:     x.Code,
			Number:   x.Number,
			Selected: x.Name == d.selected,
			Disabled: !d.allowed,
		}
	}

	if r := m.pod.incoming; r != nil {
		v.Pod.Incoming = true
		v.Pod.Requester = r.RequesterStation
		v.Pod.RequesterCode = display.Code(r.RequesterStation)
		if r.Timestamp > 0 {
			v.Pod.RequestTime = time.UnixMilli(r.Timestamp).UTC().Format("15:04:05")
		}
	}
	v.Pod.Outgoing = m.pod.sent != nil

	v.Maintenance = MaintenanceView{
		AirPower: m.maint.airPower,
		Sensors:  make([]SensorView, len(m.maint.order)),
		Slider:   sliderView(m.slider(types.ScreenMaintenance), rest, false),
	}
	for i, name := range m.maint.order {
		on := m.maint.sensors[name]
		v.Maintenance.Sensors[i] = SensorView{Name: name, On: on, Color: display.SensorColor(on), Busy: m.maint.busy[name]}
	}
	for n := range m.maint.others {
		v.Maintenance.Others = append(v.Maintenance.Others, n)
	}
	sort.Ints(v.Maintenance.Others)

	if pad := m.keypad.pad; pad != nil {
		v.Keypad = KeypadView{
			Target:   m.keypad.target,
			Dots:     pad.Dots(),
			Message:  m.keypad.message,
			Shake:    m.keypad.shake,
			Invalid:  m.keypad.invalid,
			Revealed: pad.Revealed(),
			Waiting:  m.keypad.waiting,
		}
	}

	v.History = HistoryView{
		Entries: sortHistory(m.history.entries, m.history.sort),
		Sort:    m.history.sort,
		Loading: m.history.loading,
		Saved:   m.history.saved,
	}
	v.ClearData = ClearDataView{Scope: m.clear.scope, Slider: sliderView(m.slider(types.ScreenClearData), rest, false)}

	for _, n := range m.notices {
		v.Notices = append(v.Notices, NoticeView{Text: n.text, Kind: n.kind, Color: display.NoticeColor(n.kind)})
	}
	return v
}

func sliderView(s *gesture.Slider, rest float64, disabled bool) SliderView {
	if s == nil {
		return SliderView{Left: rest, Disabled: disabled}
	}
	return SliderView{
		Left:     display.SliderLeft(s.Offset(), rest, s.Max),
		Dragging: s.Dragging(),
		Disabled: disabled,
	}
}

func priorityText(high bool) string {
	if high {
		return PriorityHigh
	}
	return PriorityLow
}
