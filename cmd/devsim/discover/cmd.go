package discover

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/devsim/cmd/devsim/subcmd"
	"github.com/temoto/devsim/internal/discovery"
	"github.com/temoto/devsim/internal/state"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

var Mod = subcmd.Mod{
	Name:  "discover",
	Usage: "multicast one discovery request, print responses and optionally telemetry",
}

// Main refers to Mod, assign here to avoid initialization cycle.
func init() {
	Mod.Main = Main
}

func Main(ctx context.Context, config *state.Config, args []string) error {
	fs := flag.NewFlagSet(Mod.Name, flag.ContinueOnError)
	flagWindow := fs.Duration("window", 3*time.Second, "how long to collect responses")
	flagListen := fs.String("listen", "", "receive telemetry on this host:port and announce it in request")
	if err := fs.Parse(args); err != nil {
		return errors.Trace(err)
	}
	g := state.GetGlobal(ctx)

	group, err := config.Discovery.Group()
	if err != nil {
		return errors.Trace(err)
	}
	opt := discovery.QueryOptions{
		Group:     group,
		TTL:       config.Discovery.HopLimit(),
		Interface: config.Discovery.Interface,
	}

	ctx, cancel := context.WithTimeout(ctx, *flagWindow)
	defer cancel()

	if *flagListen != "" {
		conn, err := listenTelemetry(*flagListen)
		if err != nil {
			return errors.Annotate(err, "telemetry listen")
		}
		defer conn.Close()
		local := conn.LocalAddr().(*net.UDPAddr)
		opt.ReplyPort = local.Port
		if !local.IP.IsUnspecified() {
			opt.ReplyIP = local.IP.String()
		}
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()
		go printTelemetry(g.Log, os.Stdout, conn)
	}

	return discovery.Query(ctx, g.Log, opt, func(resp *tele.DiscoveryResponse, from *net.UDPAddr) {
		printResponse(os.Stdout, resp, from)
	})
}

func listenTelemetry(addr string) (*net.UDPConn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, errors.NotValidf("port=%s", port)
	}
	return net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP(host), Port: p})
}

func printResponse(w io.Writer, resp *tele.DiscoveryResponse, from *net.UDPAddr) {
	fmt.Fprintf(w, "device id=%s class=%s command=%s from=%s\n",
		resp.DeviceId, resp.DeviceClass, net.JoinHostPort(resp.Ip, strconv.Itoa(int(resp.Port))), from)
}

func printTelemetry(log *log2.Log, w io.Writer, conn *net.UDPConn) {
	buf := make([]byte, telenet.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !telenet.IsClosed(err) {
				log.Errorf("telemetry read err=%v", err)
			}
			return
		}
		var tm tele.TelemetryMessage
		if err = telenet.UnmarshalDatagram(buf[:n], &tm); err != nil {
			log.Debugf("telemetry from=%s err=%v", from, err)
			continue
		}
		fmt.Fprintf(w, "telemetry id=%s data=%s from=%s\n", tm.DeviceId, tm.Data, from)
	}
}
