// mavgate bridges a MAVLink telemetry stream to WebSocket subscribers.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"

	"github.com/mavgate/mavgate/internal/gateway"
	"github.com/mavgate/mavgate/internal/state"
	"github.com/mavgate/mavgate/log2"
)

// set at build time with -ldflags "-X main.BuildVersion=..."
var BuildVersion string = "unknown"

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "mavgate.hcl", "")
	flagVersion := cmdline.Bool("version", false, "print build version and exit")
	cmdline.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Printf("mavgate %s\n", BuildVersion)
		return
	}

	log := log2.NewStderr(log2.LInfo)
	if sdnotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion

	config := state.MustReadConfig(log, state.NewOsFullReader("."), *flagConfig)
	if err := config.ApplyEnv(os.Getenv); err != nil {
		g.Fatal(errors.Annotate(err, "environment"))
	}
	g.MustInit(ctx, config)

	gw := gateway.New(g)
	if err := gw.Start(ctx); err != nil {
		g.Fatal(err)
	}
	log.Infof("mavlink=%s listening=%s", config.Mavlink.Connect, gw.Addr())
	sdnotify(daemon.SdNotifyReady)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("signal=%v", sig)
		sdnotify(daemon.SdNotifyStopping)
		gw.Stop()
	}()

	g.Alive.Wait()
	gw.Stop()
	log.Infof("goodbye")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdnotify: %s\n", errors.ErrorStack(err))
		os.Exit(1)
	}
	return ok
}
