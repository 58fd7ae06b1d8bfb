// Main, user facing mode of operation.
package run

import (
	"context"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"

	"github.com/podline/kiosk/cmd/kiosk/subcmd"
	"github.com/podline/kiosk/internal/input"
	"github.com/podline/kiosk/internal/metrics"
	"github.com/podline/kiosk/internal/state"
	"github.com/podline/kiosk/internal/ui"
)

var Mod = subcmd.Mod{Name: "run", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	kiosk, err := Start(ctx, config, nil)
	if err != nil {
		return err
	}
	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("kiosk init complete station=%s", g.Station.Name)

	kiosk.Loop(ctx)
	cancel()
	g.Alive.Stop()
	g.Alive.Wait()
	g.Tele.Close()
	return nil
}

// Start inits global state and controller, then launches push channel,
// hardware keypad and diagnostics server goroutines. Caller runs Loop.
func Start(ctx context.Context, config *state.Config, r ui.Renderer) (*ui.UI, error) {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	kiosk := &ui.UI{Renderer: r}
	if err := kiosk.Init(ctx); err != nil {
		return nil, errors.Annotate(err, "ui Init()")
	}

	g.Channel.SetHandler(kiosk.OnPush)
	g.Alive.Add(1)
	go func() {
		defer g.Alive.Done()
		if err := g.Channel.Run(ctx); err != nil {
			// controller keeps polling without push channel
			g.Error(err, "push channel")
		}
	}()

	if c := config.Input.DevInputEvent; c.Enable {
		src, err := input.NewDevInputEventSource(c.Device)
		if err != nil {
			return nil, errors.Annotate(err, "input")
		}
		go func() {
			if err := input.Run(ctx, g.Log, src, kiosk.PostAction); err != nil {
				g.Error(err)
			}
		}()
	}

	if listen := config.Diag.Listen; listen != "" {
		srv := metrics.NewServer(g.Metrics, metrics.Sources{
			View: func() interface{} {
				if v := kiosk.View(); v != nil {
					return v
				}
				return nil
			},
			Health: g.Health,
			QRText: func() string { return g.Backend.URL("/api/download_history") },
		}, g.Log)
		go func() {
			if err := srv.Run(ctx, listen); err != nil {
				g.Error(err)
			}
		}()
	}
	return kiosk, nil
}
