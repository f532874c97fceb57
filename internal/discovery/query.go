package discovery

import (
	"context"
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type QueryOptions struct {
	Group     *net.UDPAddr
	TTL       int
	Interface string
	// Gateway telemetry endpoint announced in request. Empty IP lets devices use datagram source.
	ReplyIP   string
	ReplyPort int
}

type ResponseFunc func(resp *tele.DiscoveryResponse, from *net.UDPAddr)

// Query acts as gateway: sends one DiscoveryRequest to the group
// and reports every DiscoveryResponse heard until ctx is done.
func Query(ctx context.Context, log *log2.Log, opt QueryOptions, fn ResponseFunc) error {
	conn, err := telenet.ListenMulticast(ctx, opt.Group, opt.Interface)
	if err != nil {
		return errors.Annotate(err, "query")
	}
	defer conn.Close()

	out, err := telenet.DialMulticast(opt.Group, opt.TTL, opt.Interface)
	if err != nil {
		return errors.Annotate(err, "query")
	}
	req := tele.NewDiscoveryRequest(opt.ReplyIP, opt.ReplyPort)
	_, err = telenet.WriteDatagram(out, req)
	_ = out.Close()
	if err != nil {
		return errors.Annotate(err, "query")
	}
	log.Debugf("query sent group=%s reply=%s:%d", opt.Group, opt.ReplyIP, opt.ReplyPort)

	return Collect(ctx, log, conn, fn)
}

// Collect reads DiscoveryResponse datagrams until ctx is done.
// Requests heard on the group (including own echo) are skipped.
func Collect(ctx context.Context, log *log2.Log, conn *net.UDPConn, fn ResponseFunc) error {
	stopch := make(chan struct{})
	defer close(stopch)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stopch:
		}
	}()

	buf := make([]byte, telenet.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return errors.Annotate(err, "collect")
		}
		var resp tele.DiscoveryResponse
		if err = telenet.UnmarshalDatagram(buf[:n], &resp); err != nil {
			log.Debugf("collect from=%s err=%v", from, err)
			continue
		}
		if resp.DeviceId == tele.KindDiscoveryRequest || resp.DeviceId == "" {
			continue
		}
		fn(&resp, from)
	}
}
