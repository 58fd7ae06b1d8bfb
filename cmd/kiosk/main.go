package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/mattn/go-isatty"

	"github.com/podline/kiosk/cmd/kiosk/console"
	"github.com/podline/kiosk/cmd/kiosk/run"
	"github.com/podline/kiosk/cmd/kiosk/subcmd"
	"github.com/podline/kiosk/internal/state"
	state_new "github.com/podline/kiosk/internal/state/new"
	"github.com/podline/kiosk/internal/tele"
	"github.com/podline/kiosk/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var modules = []subcmd.Mod{
	run.Mod,
	console.Mod,
	{Name: "version", Main: versionMain},
}

func main() {
	log := log2.NewStderr(log2.LDebug)
	log.SetFlags(log2.LInteractiveFlags)

	flagset := flag.NewFlagSet("kiosk", flag.ContinueOnError)
	configPath := flagset.String("config", "kiosk.hcl", "")
	logDebug := flagset.Bool("debug", false, "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: kiosk [options] command\nCommands: run console version\nOptions:\n")
		flagset.PrintDefaults()
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatal(err)
	}
	command := flagset.Arg(0)
	if command == "" {
		command = run.Mod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		flagset.Usage()
		log.Fatal(err)
	}

	if subcmd.SdNotify("start") {
		// under systemd journal timestamp is redundant
		log.SetFlags(log2.LServiceFlags)
	} else if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LStdFlags)
	}
	if !*logDebug {
		log.SetLevel(log2.LInfo)
	}

	ctx, g := state_new.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigch
		log.Infof("signal=%v stopping", sig)
		cancel()
		g.Alive.Stop()
	}()

	config := state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(errors.Annotatef(err, "command=%s", mod.Name))
	}
	g.Log.Infof("bye")
}

func versionMain(ctx context.Context, config *state.Config) error {
	fmt.Printf("kiosk %s\n", BuildVersion)
	return nil
}
