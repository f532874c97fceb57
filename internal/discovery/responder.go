package discovery

import (
	"net"

	"github.com/juju/errors"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type Announcer interface {
	Announce(*tele.DiscoveryResponse) error
}

// Responder sends DiscoveryResponse to the whole multicast group, not to requester.
// Every device and gateway on the group receives every response.
type Responder struct {
	Log       *log2.Log
	Group     *net.UDPAddr
	TTL       int
	Interface string
	Stat      *telenet.SessionStat
}

func (r *Responder) Announce(resp *tele.DiscoveryResponse) error {
	conn, err := telenet.DialMulticast(r.Group, r.TTL, r.Interface)
	if err != nil {
		return errors.Annotate(err, "announce")
	}
	defer conn.Close()
	if _, err = telenet.WriteDatagram(conn, resp); err != nil {
		return errors.Annotate(err, "announce")
	}
	if r.Stat != nil {
		r.Stat.Send.Register(resp)
	}
	r.Log.Debugf("announce group=%s id=%s addr=%s:%d", r.Group, resp.DeviceId, resp.Ip, resp.Port)
	return nil
}
