package ui

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/juju/errors"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/internal/arrow"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/gesture"
	"github.com/podline/kiosk/internal/keypad"
	"github.com/podline/kiosk/internal/sched"
	"github.com/podline/kiosk/internal/state"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	ui_config "github.com/podline/kiosk/internal/ui/config"
	"github.com/podline/kiosk/log2"
)

// Backend is subset of HTTP API used by controller.
type Backend interface {
	LiveTracking(ctx context.Context) (types.Status, error)
	LatestDispatch(ctx context.Context) (types.HistoryEntry, error)
	Logs(ctx context.Context) ([]types.HistoryEntry, error)
	Destinations(ctx context.Context, own string) ([]types.Destination, error)
	DispatchAllowed(ctx context.Context) (bool, string, error)
	PodAvailable(ctx context.Context, station int) (bool, error)
	Maintenance(ctx context.Context, action string, station int, body interface{}) error
	ClearHistory(ctx context.Context, scope string) error
	DownloadHistory(ctx context.Context, w io.Writer) (int64, error)
	SubmitPin(ctx context.Context, path, pin string) (bool, error)
}

// Emitter sends named events over push channel.
type Emitter interface {
	Emit(name string, data interface{}) error
}

type Renderer interface {
	Render(v *View)
}

const eventQueueLen = 64

type UI struct { //nolint:maligned
	// nil fields are taken from Global in Init
	Backend  Backend
	Emitter  Emitter
	Sched    sched.Scheduler
	Renderer Renderer

	config  *ui_config.Config
	g       *state.Global
	log     *log2.Log
	ctx     context.Context
	station types.Station
	protect map[types.Screen]bool
	eventch chan types.Event
	m       model
	arrow   *arrow.Animator
	view    atomic.Value // *View

	pollTimer   sched.Timer
	enrichTimer sched.Timer
	releaseTmr  sched.Timer
	revealTimer sched.Timer
	timerSeq    int
	timers      map[int]sched.Timer
	started     bool

	XXX_testHook func(*View)
}

func (self *UI) Init(ctx context.Context) error {
	self.g = state.GetGlobal(ctx)
	self.log = self.g.Log
	self.ctx = ctx
	self.config = &self.g.Config.UI
	self.station = self.g.Station
	self.eventch = make(chan types.Event, eventQueueLen)
	self.timers = make(map[int]sched.Timer)

	if self.Backend == nil {
		if self.g.Backend == nil {
			return errors.Errorf("ui init backend=nil")
		}
		self.Backend = self.g.Backend
	}
	if self.Emitter == nil {
		if self.g.Channel == nil {
			return errors.Errorf("ui init channel=nil")
		}
		self.Emitter = self.g.Channel
	}
	if self.Sched == nil {
		self.Sched = sched.NewLoop(self.postFunc)
	}
	applyDefaults(self.config)

	present := allScreens()
	if len(self.config.Screens) != 0 {
		var err error
		if present, err = parseScreens(self.config.Screens); err != nil {
			return errors.Annotate(err, "ui.screens")
		}
	}
	protect, err := parseScreens(self.config.Keypad.Protect)
	if err != nil {
		return errors.Annotate(err, "ui.keypad.protect")
	}
	self.m = model{
		present: present,
		sliders: map[types.Screen]*gesture.Slider{
			types.ScreenDispatch:    gesture.New(self.config.Slider.Max, self.config.Slider.Threshold),
			types.ScreenMaintenance: gesture.New(self.config.Slider.Max, self.config.Slider.Threshold),
			types.ScreenClearData:   gesture.New(self.config.Slider.Max, self.config.Slider.Threshold),
		},
	}
	self.m.dispatch.allowed = true
	self.m.dispatch.msgWarning = self.config.Dispatch.MsgWarning
	self.m.dispatch.msgNoPod = self.config.Dispatch.MsgNoPod
	self.m.keypad.pad = keypad.New(self.config.Keypad.Length)
	self.m.keypad.message = MsgEnterPin
	self.m.history.sort = SortIDDesc
	self.m.clear.scope = "all"
	self.m.maint.airPower = self.config.Maintenance.AirPower
	self.m.maint.sensors = make(map[string]bool)
	self.m.maint.busy = make(map[string]bool)
	self.m.maint.others = make(map[int]bool)
	for _, s := range self.config.Maintenance.Sensors {
		self.m.maint.order = append(self.m.maint.order, s.Name)
	}
	self.protect = protect

	self.arrow = arrow.New(self.Sched, self.config.Arrow.Count, helpers.IntMillisecondDefault(self.config.Arrow.PeriodMs, arrow.DefaultPeriod), self.publish)
	self.g.SetCommandHandler(self.teleCommand)
	self.log.Debugf("ui init station=%s screens=%d start=%s", self.station.Name, len(present), self.config.StartScreen)
	return nil
}

// Post delivers event into loop. Blocks until accepted, false when UI is stopping.
func (self *UI) Post(e types.Event) bool {
	select {
	case <-self.g.Alive.StopChan():
		return false
	default:
	}
	select {
	case self.eventch <- e:
		return true
	case <-self.g.Alive.StopChan():
		return false
	case <-self.ctx.Done():
		return false
	}
}

func (self *UI) PostAction(a types.Action) bool {
	return self.Post(types.Event{Kind: types.EventAction, Action: a})
}

// OnPush is push channel handler, safe to call from any goroutine.
func (self *UI) OnPush(p types.PushEvent) {
	self.Post(types.Event{Kind: types.EventPush, Push: p})
}

func (self *UI) postFunc(fn func()) bool {
	return self.Post(types.Event{Kind: types.EventFunc, Func: fn})
}

// Start activates start screen, begins status polling.
func (self *UI) Start() {
	if self.started {
		return
	}
	self.started = true
	start := types.ScreenDashboard
	if s, ok := types.ParseScreen(self.config.StartScreen); ok && self.m.present[s] {
		start = s
	} else if !self.m.present[start] {
		for _, s := range types.AllScreens {
			if self.m.present[s] {
				start = s
				break
			}
		}
	}
	self.activate(start)
	self.poll()
	self.pollTimer = self.Sched.Every(helpers.IntMillisecondDefault(self.config.PollMs, DefaultPoll), func() {
		self.poll()
		self.publish()
	})
	self.publish()
}

// Stop cancels every timer owned by UI. Safe to call many times.
func (self *UI) Stop() {
	if self.pollTimer != nil {
		self.pollTimer.Stop()
		self.pollTimer = nil
	}
	self.arrow.Stop()
	for id, t := range self.timers {
		t.Stop()
		delete(self.timers, id)
	}
	self.enrichTimer = nil
	self.releaseTmr = nil
	self.revealTimer = nil
	self.started = false
}

func (self *UI) Loop(ctx context.Context) {
	self.g.Alive.Add(1)
	defer self.g.Alive.Done()
	self.Start()
	defer self.Stop()
	for {
		select {
		case e := <-self.eventch:
			if e.Kind == types.EventStop {
				self.log.Debugf("ui loop stop event")
				return
			}
			self.Handle(e)
		case <-ctx.Done():
			self.log.Debugf("ui loop end ctx")
			return
		case <-self.g.Alive.StopChan():
			self.log.Debugf("ui loop end alive")
			return
		}
	}
}

// Handle runs one event on the caller goroutine, which must be the loop.
func (self *UI) Handle(e types.Event) {
	switch e.Kind {
	case types.EventAction:
		self.log.Debugf("ui action %s", e.Action.String())
		self.onAction(e.Action)
		self.publish()
	case types.EventPush:
		self.log.Debugf("ui push %s", e.Push.Name)
		self.onPush(e.Push)
		self.publish()
	case types.EventFunc:
		if e.Func != nil {
			e.Func()
		}
	case types.EventStop:
	default:
		self.log.Errorf("ui unknown event=%s", e.String())
	}
}

// View is last published snapshot, nil before Start.
func (self *UI) View() *View {
	v, _ := self.view.Load().(*View)
	return v
}

func (self *UI) Screen() types.Screen { return self.m.screen }

func (self *UI) publish() {
	v := render(&self.m, self.station, self.arrow.Frame(), self.arrow.Running(), self.config.Slider.Rest)
	self.view.Store(v)
	if self.Renderer != nil {
		self.Renderer.Render(v)
	}
	self.g.Tele.State(tele.Snapshot{
		Screen:    self.m.screen.String(),
		Active:    self.m.status.Active,
		Connected: self.m.connected,
		Sender:    self.m.status.Sender,
		Receiver:  self.m.status.Receiver,
	})
	self.g.Metrics.SetDispatchActive(self.m.status.Active)
	if self.XXX_testHook != nil {
		self.XXX_testHook(v)
	}
}

type ownedTimer struct {
	ui *UI
	id int
	t  sched.Timer
}

func (self *ownedTimer) Stop() {
	self.t.Stop()
	delete(self.ui.timers, self.id)
}

// after schedules fn on the loop; pending timers are cancelled by Stop.
func (self *UI) after(d time.Duration, fn func()) sched.Timer {
	self.timerSeq++
	id := self.timerSeq
	ot := &ownedTimer{ui: self, id: id}
	ot.t = self.Sched.After(d, func() {
		delete(self.timers, id)
		fn()
		self.publish()
	})
	// manual scheduler never fires inside After
	self.timers[id] = ot.t
	return ot
}

// async runs work off the loop with controller context, then continuation on the loop.
func (self *UI) async(work func(ctx context.Context) func()) {
	ctx := self.ctx
	self.Sched.Go(func() func() {
		k := work(ctx)
		if k == nil {
			return nil
		}
		return func() {
			k()
			self.publish()
		}
	})
}

func (self *UI) emit(name string, data interface{}) bool {
	if err := self.Emitter.Emit(name, data); err != nil {
		self.log.Errorf("ui emit %s err=%v", name, err)
		return false
	}
	return true
}

func (self *UI) notify(kind display.NoticeKind, text string) {
	self.m.noticeSeq++
	id := self.m.noticeSeq
	self.m.notices = append(self.m.notices, notice{id: id, text: text, kind: kind})
	self.g.Metrics.RecordNotice(kind.String())
	self.log.Infof("notice %s: %s", kind.String(), text)
	self.after(helpers.IntMillisecondDefault(self.config.NoticeMs, DefaultNotice), func() { self.m.dropNotice(id) })
}

// alert stays until dismissed or replaced.
func (self *UI) alert(text string) {
	self.m.alert = text
	self.g.Metrics.RecordNotice("alert")
	self.log.Infof("alert: %s", text)
}

func (self *UI) onAction(a types.Action) {
	switch a.Kind {
	case types.ActionNavigate:
		self.navigate(a.Screen)
	case types.ActionDismissAlert:
		self.m.alert = ""
	case types.ActionSelectDestination:
		self.selectDestination(a)
	case types.ActionTogglePriority:
		self.togglePriority()
	case types.ActionSlidePress:
		self.slidePress(a.X)
	case types.ActionSlideMove:
		self.slideMove(a.X)
	case types.ActionSlideRelease:
		self.slideRelease()
	case types.ActionAbort:
		self.abort()
	case types.ActionRequestPod:
		self.requestPod()
	case types.ActionAcceptPod:
		self.acceptPod()
	case types.ActionInching:
		self.inching(a.Value)
	case types.ActionAirDivert:
		self.airDivert(a.Value, a.Int)
	case types.ActionStop:
		self.maintenanceStop()
	case types.ActionSensorTap:
		self.sensorTap(a.Value)
	case types.ActionKeyDigit:
		self.keyDigit(a.Digit)
	case types.ActionKeyBack:
		self.keyBack()
	case types.ActionKeyEnter:
		self.keyEnter()
	case types.ActionKeyReveal:
		self.keyReveal()
	case types.ActionHistorySort:
		self.historySort(a.Value)
	case types.ActionHistoryDownload:
		self.historyDownload()
	case types.ActionClearScope:
		self.clearScope(a.Value)
	default:
		self.log.Errorf("ui unknown action=%s", a.String())
	}
}
