// Interactive console for developing and servicing kiosk without touch screen.
// Runs full controller; typed lines become actions, view changes are printed.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"

	"github.com/podline/kiosk/cmd/kiosk/run"
	"github.com/podline/kiosk/cmd/kiosk/subcmd"
	"github.com/podline/kiosk/helpers/cli"
	"github.com/podline/kiosk/internal/state"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/internal/ui"
)

const modName = "console"

var Mod = subcmd.Mod{Name: modName, Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := &textRenderer{}
	kiosk, err := run.Start(ctx, config, r)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		kiosk.Loop(ctx)
		close(done)
	}()

	exec := func(line string) {
		if strings.TrimSpace(line) == "view" {
			b, _ := json.MarshalIndent(kiosk.View(), "", "  ")
			fmt.Println(string(b))
			return
		}
		if name, data, ok := parsePush(line); ok {
			kiosk.OnPush(types.PushEvent{Name: name, Data: data})
			return
		}
		actions, err := parseLine(line)
		if err != nil {
			g.Log.Errorf("console %v", err)
			return
		}
		for _, a := range actions {
			kiosk.PostAction(a)
		}
	}
	cli.MainLoop(modName, exec, newCompleter(), func() {
		cancel()
		g.Alive.Stop()
	})
	<-done
	g.Alive.Wait()
	g.Tele.Close()
	return nil
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "navigate", Description: "navigate dashboard|dispatch|history|maintenance|cleardata|lock"},
		{Text: "select", Description: "select destination by name or number"},
		{Text: "priority", Description: "toggle high/low priority"},
		{Text: "slide", Description: "slide X = press, move to X, release"},
		{Text: "abort", Description: "abort current dispatch"},
		{Text: "request-pod", Description: "request empty pod"},
		{Text: "accept-pod", Description: "accept incoming pod request"},
		{Text: "inching", Description: "inching moveLeft|moveRight"},
		{Text: "airdivert", Description: "airdivert suck|blow POWER"},
		{Text: "stop", Description: "maintenance stop"},
		{Text: "sensor", Description: "sensor S1..P4"},
		{Text: "pin", Description: "pin DIGITS = type digits and enter"},
		{Text: "reveal", Description: "show PIN digits"},
		{Text: "sort", Description: "sort id-asc|id-desc|time-asc|time-desc"},
		{Text: "download", Description: "save history export"},
		{Text: "scope", Description: "clear data scope all|60|30"},
		{Text: "dismiss", Description: "dismiss alert"},
		{Text: "push", Description: "push NAME JSON = inject push event"},
		{Text: "view", Description: "print current view"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func parsePush(line string) (string, json.RawMessage, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(parts) < 2 || parts[0] != "push" {
		return "", nil, false
	}
	var data json.RawMessage
	if len(parts) == 3 {
		data = json.RawMessage(parts[2])
	}
	return parts[1], data, true
}

// parseLine converts console command into actions.
func parseLine(line string) ([]types.Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	verb, args := fields[0], fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	num := func(i int) (int, error) {
		n, err := strconv.Atoi(arg(i))
		return n, errors.Annotatef(err, "%s argument", verb)
	}

	switch verb {
	case "slide":
		x, err := strconv.ParseFloat(arg(0), 64)
		if err != nil {
			return nil, errors.Annotate(err, "slide argument")
		}
		return []types.Action{
			{Kind: types.ActionSlidePress},
			{Kind: types.ActionSlideMove, X: x},
			{Kind: types.ActionSlideRelease},
		}, nil
	case "pin":
		out := make([]types.Action, 0, len(arg(0))+1)
		for _, c := range []byte(arg(0)) {
			out = append(out, types.Action{Kind: types.ActionKeyDigit, Digit: c})
		}
		return append(out, types.Action{Kind: types.ActionKeyEnter}), nil
	}

	kind, ok := types.ParseActionKind(verb)
	if !ok {
		return nil, errors.NotFoundf("command=%s", verb)
	}
	a := types.Action{Kind: kind}
	switch kind {
	case types.ActionNavigate:
		s, ok := types.ParseScreen(arg(0))
		if !ok {
			return nil, errors.NotValidf("screen=%s", arg(0))
		}
		a.Screen = s
	case types.ActionSelectDestination:
		if n, err := strconv.Atoi(arg(0)); err == nil {
			a.Int = n
		} else {
			a.Value = arg(0)
		}
	case types.ActionSlidePress, types.ActionSlideMove:
		x, err := strconv.ParseFloat(arg(0), 64)
		if err != nil {
			return nil, errors.Annotatef(err, "%s argument", verb)
		}
		a.X = x
	case types.ActionAirDivert:
		a.Value = arg(0)
		n, err := num(1)
		if err != nil {
			return nil, err
		}
		a.Int = n
	case types.ActionKeyDigit:
		if len(arg(0)) != 1 {
			return nil, errors.NotValidf("digit=%s", arg(0))
		}
		a.Digit = arg(0)[0]
	case types.ActionInching, types.ActionSensorTap, types.ActionHistorySort, types.ActionClearScope:
		a.Value = arg(0)
	}
	return []types.Action{a}, nil
}

// textRenderer prints view summary when it changes. Called on the loop goroutine.
type textRenderer struct {
	last string
}

func (self *textRenderer) Render(v *ui.View) {
	s := summary(v)
	if s == self.last {
		return
	}
	self.last = s
	fmt.Fprintln(os.Stdout, s)
}

func summary(v *ui.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] station=%s", v.Screen, v.Station.Code)
	if !v.Connected {
		b.WriteString(" offline")
	}
	if v.Status.Active {
		fmt.Fprintf(&b, " %s->%s %s", v.Status.SenderCode, v.Status.ReceiverCode, v.Status.TaskLabel)
	} else {
		b.WriteString(" standby")
	}
	switch v.Screen {
	case types.ScreenDispatch:
		names := make([]string, 0, len(v.Dispatch.Destinations))
		for _, d := range v.Dispatch.Destinations {
			mark := ""
			if d.Selected {
				mark = "*"
			}
			names = append(names, d.Code+mark)
		}
		fmt.Fprintf(&b, " dest=%s priority=%s slider=%.0f", strings.Join(names, ","), v.Dispatch.Priority, v.Dispatch.Slider.Left)
		if v.Dispatch.Warning != "" {
			fmt.Fprintf(&b, " warning=%q", v.Dispatch.Warning)
		}
	case types.ScreenKeypad:
		fmt.Fprintf(&b, " pin=%s %q", v.Keypad.Dots, v.Keypad.Message)
	case types.ScreenMaintenance:
		on := make([]string, 0, len(v.Maintenance.Sensors))
		for _, s := range v.Maintenance.Sensors {
			if s.On {
				on = append(on, s.Name)
			}
		}
		sort.Strings(on)
		fmt.Fprintf(&b, " sensors_on=%s air=%d", strings.Join(on, ","), v.Maintenance.AirPower)
	case types.ScreenHistory:
		fmt.Fprintf(&b, " entries=%d sort=%s", len(v.History.Entries), v.History.Sort)
	case types.ScreenClearData:
		fmt.Fprintf(&b, " scope=%s", v.ClearData.Scope)
	}
	if v.Pod.Incoming {
		fmt.Fprintf(&b, " pod_request_from=%s", v.Pod.RequesterCode)
	}
	for _, n := range v.Notices {
		fmt.Fprintf(&b, "\n  %s: %s", n.Kind, n.Text)
	}
	if v.Alert != "" {
		fmt.Fprintf(&b, "\n  ALERT: %s", v.Alert)
	}
	return b.String()
}
