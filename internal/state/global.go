package state

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/podline/kiosk/internal/backend"
	"github.com/podline/kiosk/internal/cache"
	"github.com/podline/kiosk/internal/channel"
	"github.com/podline/kiosk/internal/display"
	"github.com/podline/kiosk/internal/metrics"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/internal/types"
	"github.com/podline/kiosk/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Tele         tele.Teler
	Metrics      *metrics.Metrics
	Backend      *backend.Client
	Channel      *channel.Client
	Cache        *cache.Cache
	Station      types.Station

	// test code may set before Init
	HTTPTransport http.RoundTripper

	XXX_command atomic.Value // tele.CommandFunc, set by UI after Init

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

const (
	DefaultPersistRoot = "./tmp-kiosk-db"
	resolveTimeout     = 5 * time.Second
)

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	g.Log.Infof("build version=%s", g.BuildVersion)

	if g.Config.Persist.Root == "" {
		g.Config.Persist.Root = DefaultPersistRoot
		g.Log.Errorf("config: persist.root=empty changed=%s", g.Config.Persist.Root)
	}
	g.Log.Debugf("config: persist.root=%s", g.Config.Persist.Root)

	if g.Metrics == nil {
		g.Metrics = metrics.New(g.Config.Diag)
	}
	var err error
	g.Backend, err = backend.New(g.Config.Backend, g.Log, g.HTTPTransport, g.Metrics.SetBreakerState)
	if err != nil {
		return errors.Annotate(err, "backend init")
	}
	g.Channel, err = channel.New(g.Config.Channel, g.Backend.BaseURL(), g.Log)
	if err != nil {
		return errors.Annotate(err, "channel init")
	}
	g.Cache = cache.New(g.Config.Persist.Root, g.Log)
	if err := g.Cache.Load(); err != nil {
		g.Log.Errorf("cache load err=%v", err)
	}

	g.Station = g.ResolveStation(ctx)
	g.Log.Infof("station name=%s code=%s", g.Station.Name, g.Station.Code)

	// tele topics need resolved station name; errors logged before this point stay local
	if g.Config.Tele.PersistPath == "" {
		g.Config.Tele.PersistPath = filepath.Join(g.Config.Persist.Root, "tele")
	}
	// Tele.Init gets g.Log clone before SetErrorFunc, so Tele.Log.Error doesn't recurse on itself
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Tele, g.Station.Name, g.teleCommand); err != nil {
		g.Tele = tele.NewStub()
		return errors.Annotate(err, "tele init")
	}
	g.Log.SetErrorFunc(g.Tele.Error)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

// ResolveStation picks own identity: explicit config, then client IP map, then station 1.
// Result is written to display cache, never read back.
func (g *Global) ResolveStation(ctx context.Context) types.Station {
	name := g.Config.Station.Name
	if name == "" && g.Config.Station.ID > 0 {
		name = display.StationName(g.Config.Station.ID)
	}
	if name == "" && len(g.Config.Station.IPMap) != 0 {
		rctx, cancel := context.WithTimeout(ctx, resolveTimeout)
		ip, err := g.Backend.ClientIP(rctx)
		cancel()
		if err != nil {
			g.Log.Errorf("station resolve client ip err=%v", err)
		} else if n, ok := g.Config.Station.IPMap[ip]; ok {
			name = display.StationName(n)
		} else {
			g.Log.Errorf("station resolve ip=%s not in station.ip_map", ip)
		}
	}
	if name == "" {
		name = display.StationName(1)
	}
	s := types.Station{Name: name, Number: display.Number(name), Code: display.Code(name)}
	if err := g.Cache.Set(cache.KeyStationUsername, s.Name); err != nil {
		g.Log.Errorf("station cache err=%v", err)
	}
	if err := g.Cache.Set(cache.KeyStationDisplay, s.Code); err != nil {
		g.Log.Errorf("station cache err=%v", err)
	}
	return s
}

// SetCommandHandler routes remote telemetry commands, replacing previous handler.
func (g *Global) SetCommandHandler(f tele.CommandFunc) { g.XXX_command.Store(f) }

func (g *Global) teleCommand(name string, args map[string]interface{}) {
	if f, ok := g.XXX_command.Load().(tele.CommandFunc); ok && f != nil {
		f(name, args)
		return
	}
	g.Log.Errorf("tele command=%s no handler", name)
}

// Health is diagnostics summary.
func (g *Global) Health() map[string]interface{} {
	return map[string]interface{}{
		"version": g.BuildVersion,
		"station": g.Station.Name,
		"channel": g.Channel.Status(),
		"backend": g.Backend.BreakerState().String(),
		"running": g.Alive.IsRunning(),
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			if format, ok := args[0].(string); ok {
				err = errors.Annotatef(err, format, args[1:]...)
			} else {
				err = errors.Annotate(err, fmt.Sprint(args...))
			}
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}
