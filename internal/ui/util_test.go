package ui_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/podline/kiosk/internal/sched"
	"github.com/podline/kiosk/internal/state"
	state_new "github.com/podline/kiosk/internal/state/new"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/internal/ui"
	"github.com/podline/kiosk/log2"
)

const testConfig = `
station {
  id = 1
}
`

const (
	station1 = "passthrough-station-1"
	station2 = "passthrough-station-2"
	station3 = "passthrough-station-3"
	station4 = "passthrough-station-4"
)

var testDestinations = []types.Destination{
	{Name: station2, Number: 2, Code: "P2", Kind: "station"},
	{Name: station3, Number: 3, Code: "P3", Kind: "station"},
}

type tenv struct {
	ctx     context.Context
	g       *state.Global
	ui      *ui.UI
	sched   *sched.Manual
	queue   *queueSched
	backend *mockBackend
	emitter *mockEmitter
	tele    *teleRecorder
}

type envOption func(*tenv)

// withQueue keeps background work pending until flush.
func withQueue() envOption {
	return func(env *tenv) {
		env.queue = &queueSched{Manual: env.sched}
		env.ui.Sched = env.queue
	}
}

func newEnv(t testing.TB, conf string, opts ...envOption) *tenv {
	t.Helper()
	ctx, g := state_new.NewTestContext(t, "test", conf)
	rec := &teleRecorder{}
	g.Tele = rec
	env := &tenv{
		ctx:   ctx,
		g:     g,
		sched: sched.NewManual(),
		tele:  rec,
		backend: &mockBackend{
			allowed: true,
			pod:     true,
			dests:   append([]types.Destination(nil), testDestinations...),
		},
		emitter: &mockEmitter{},
	}
	env.ui = &ui.UI{Backend: env.backend, Emitter: env.emitter, Sched: env.sched}
	env.emitter.screen = env.ui.Screen
	for _, o := range opts {
		o(env)
	}
	require.NoError(t, env.ui.Init(ctx))
	return env
}

func startEnv(t testing.TB, conf string, opts ...envOption) *tenv {
	t.Helper()
	env := newEnv(t, conf, opts...)
	env.ui.Start()
	return env
}

func (env *tenv) act(a types.Action) *ui.View {
	env.ui.Handle(types.Event{Kind: types.EventAction, Action: a})
	return env.ui.View()
}

func (env *tenv) nav(s types.Screen) *ui.View {
	return env.act(types.Action{Kind: types.ActionNavigate, Screen: s})
}

func (env *tenv) push(name string, data string) *ui.View {
	p := types.PushEvent{Name: name}
	if data != "" {
		p.Data = json.RawMessage(data)
	}
	env.ui.Handle(types.Event{Kind: types.EventPush, Push: p})
	return env.ui.View()
}

func (env *tenv) advance(d time.Duration) *ui.View {
	env.sched.Advance(d)
	return env.ui.View()
}

func (env *tenv) slide(to float64) *ui.View {
	env.act(types.Action{Kind: types.ActionSlidePress, X: 0})
	env.act(types.Action{Kind: types.ActionSlideMove, X: to})
	return env.act(types.Action{Kind: types.ActionSlideRelease})
}

func (env *tenv) typePin(pin string) *ui.View {
	for i := 0; i < len(pin); i++ {
		env.act(types.Action{Kind: types.ActionKeyDigit, Digit: pin[i]})
	}
	return env.act(types.Action{Kind: types.ActionKeyEnter})
}

// unlock opens protected screen s with default PIN.
func (env *tenv) unlock(t testing.TB, s types.Screen) *ui.View {
	t.Helper()
	v := env.nav(s)
	require.Equal(t, types.ScreenKeypad, v.Screen)
	v = env.typePin("1234")
	require.Equal(t, s, v.Screen)
	return v
}

func noticeTexts(v *ui.View) []string {
	out := make([]string, 0, len(v.Notices))
	for _, n := range v.Notices {
		out = append(out, n.Text)
	}
	return out
}

// queueSched is Manual scheduler where Go work waits for flush.
type queueSched struct {
	*sched.Manual
	pending []func() func()
}

func (self *queueSched) Go(work func() func()) { self.pending = append(self.pending, work) }

func (self *queueSched) flush() {
	for len(self.pending) != 0 {
		work := self.pending[0]
		self.pending = self.pending[1:]
		if k := work(); k != nil {
			k()
		}
	}
}

type maintCall struct {
	action  string
	station int
	body    string
}

type mockBackend struct {
	sync.Mutex
	status      types.Status
	statusErr   error
	latest      types.HistoryEntry
	latestErr   error
	logs        []types.HistoryEntry
	logsErr     error
	dests       []types.Destination
	destsErr    error
	allowed     bool
	reason      string
	allowedErr  error
	pod         bool
	podErr      error
	maintErr    error
	clearErr    error
	download    string
	downloadErr error
	pinOK       bool
	pinErr      error

	calls  []string
	maint  []maintCall
	clears []string
	pins   []string
}

func (self *mockBackend) record(name string) {
	self.calls = append(self.calls, name)
}

func (self *mockBackend) count(name string) int {
	self.Lock()
	defer self.Unlock()
	n := 0
	for _, c := range self.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (self *mockBackend) LiveTracking(ctx context.Context) (types.Status, error) {
	self.Lock()
	defer self.Unlock()
	self.record("live_tracking")
	return self.status, self.statusErr
}

func (self *mockBackend) LatestDispatch(ctx context.Context) (types.HistoryEntry, error) {
	self.Lock()
	defer self.Unlock()
	self.record("latest_dispatch")
	return self.latest, self.latestErr
}

func (self *mockBackend) Logs(ctx context.Context) ([]types.HistoryEntry, error) {
	self.Lock()
	defer self.Unlock()
	self.record("logs")
	return append([]types.HistoryEntry(nil), self.logs...), self.logsErr
}

func (self *mockBackend) Destinations(ctx context.Context, own string) ([]types.Destination, error) {
	self.Lock()
	defer self.Unlock()
	self.record("destinations")
	return append([]types.Destination(nil), self.dests...), self.destsErr
}

func (self *mockBackend) DispatchAllowed(ctx context.Context) (bool, string, error) {
	self.Lock()
	defer self.Unlock()
	self.record("dispatch_allowed")
	return self.allowed, self.reason, self.allowedErr
}

func (self *mockBackend) PodAvailable(ctx context.Context, station int) (bool, error) {
	self.Lock()
	defer self.Unlock()
	self.record("pod_available")
	return self.pod, self.podErr
}

func (self *mockBackend) Maintenance(ctx context.Context, action string, station int, body interface{}) error {
	self.Lock()
	defer self.Unlock()
	self.record("maintenance")
	b := ""
	if body != nil {
		bs, _ := json.Marshal(body)
		b = string(bs)
	}
	self.maint = append(self.maint, maintCall{action: action, station: station, body: b})
	return self.maintErr
}

func (self *mockBackend) ClearHistory(ctx context.Context, scope string) error {
	self.Lock()
	defer self.Unlock()
	self.record("clear_history")
	self.clears = append(self.clears, scope)
	return self.clearErr
}

func (self *mockBackend) DownloadHistory(ctx context.Context, w io.Writer) (int64, error) {
	self.Lock()
	defer self.Unlock()
	self.record("download_history")
	n, err := io.WriteString(w, self.download)
	if err == nil {
		err = self.downloadErr
	}
	return int64(n), err
}

func (self *mockBackend) SubmitPin(ctx context.Context, path, pin string) (bool, error) {
	self.Lock()
	defer self.Unlock()
	self.record("submit_pin " + path)
	self.pins = append(self.pins, pin)
	return self.pinOK, self.pinErr
}

type emitted struct {
	name   string
	data   string
	screen types.Screen
}

type mockEmitter struct {
	sync.Mutex
	err    error
	events []emitted
	screen func() types.Screen
}

func (self *mockEmitter) Emit(name string, data interface{}) error {
	self.Lock()
	defer self.Unlock()
	if self.err != nil {
		return self.err
	}
	bs, err := json.Marshal(data)
	if err != nil {
		return err
	}
	e := emitted{name: name, data: string(bs)}
	if self.screen != nil {
		e.screen = self.screen()
	}
	self.events = append(self.events, e)
	return nil
}

func (self *mockEmitter) names() []string {
	self.Lock()
	defer self.Unlock()
	out := make([]string, 0, len(self.events))
	for _, e := range self.events {
		out = append(out, e.name)
	}
	return out
}

func (self *mockEmitter) find(name string) []emitted {
	self.Lock()
	defer self.Unlock()
	var out []emitted
	for _, e := range self.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type teleEvent struct {
	kind   string
	fields map[string]interface{}
}

type teleRecorder struct {
	sync.Mutex
	states []tele.Snapshot
	events []teleEvent
}

func (self *teleRecorder) Init(context.Context, *log2.Log, tele.Config, string, tele.CommandFunc) error {
	return nil
}
func (self *teleRecorder) Close()      {}
func (self *teleRecorder) Error(error) {}

func (self *teleRecorder) State(s tele.Snapshot) {
	self.Lock()
	self.states = append(self.states, s)
	self.Unlock()
}

func (self *teleRecorder) Event(kind string, fields map[string]interface{}) {
	self.Lock()
	self.events = append(self.events, teleEvent{kind: kind, fields: fields})
	self.Unlock()
}

func (self *teleRecorder) kinds() []string {
	self.Lock()
	defer self.Unlock()
	out := make([]string, 0, len(self.events))
	for _, e := range self.events {
		out = append(out, e.kind)
	}
	return out
}
