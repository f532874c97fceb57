package device

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/devsim/cmd/devsim/subcmd"
	"github.com/temoto/devsim/internal/device"
	"github.com/temoto/devsim/internal/metrics"
	"github.com/temoto/devsim/internal/state"
)

var Mod = subcmd.Mod{
	Name:  "device",
	Usage: "run simulated device until SIGINT/SIGTERM",
}

// Main refers to Mod, assign here to avoid initialization cycle.
func init() {
	Mod.Main = Main
}

func Main(ctx context.Context, config *state.Config, args []string) error {
	fs := flag.NewFlagSet(Mod.Name, flag.ContinueOnError)
	flagMetrics := fs.String("metrics", "", "override metrics.listen, host:port")
	if err := fs.Parse(args); err != nil {
		return errors.Trace(err)
	}
	if *flagMetrics != "" {
		config.Metrics.Listen = *flagMetrics
	}

	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Trace(err)
	}
	g.Log.Debugf("config=%+v", g.Config)

	d, err := device.NewFromGlobal(g)
	if err != nil {
		return errors.Annotate(err, "device init")
	}
	if err = d.Start(ctx); err != nil {
		return errors.Trace(err)
	}

	var ms *metrics.Server
	if listen := g.Config.Metrics.Listen; listen != "" {
		src := metrics.Source{
			DeviceID: d.Identity().ID,
			Stat:     d.Stat(),
			Command:  d.CommandStat(),
			Sessions: d.Sessions,
		}
		ms, err = metrics.Listen(g.Log, listen, metrics.NewRouter(metrics.NewRegistry(src), src))
		if err != nil {
			d.Stop()
			return errors.Annotate(err, "metrics")
		}
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case s := <-signalCh:
			g.Log.Infof("signal=%v stopping", s)
			g.Alive.Stop()
		case <-g.Alive.StopChan():
		}
	}()

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Infof("device id=%s running", d.Identity().ID)
	<-g.Alive.StopChan()

	subcmd.SdNotify(daemon.SdNotifyStopping)
	if ms != nil {
		_ = ms.Close()
	}
	d.Stop()
	g.Stop()
	return nil
}
