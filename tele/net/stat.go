package telenet

// Complex values are read and modified atomically, but not consistently,
// i.e. it is possible to read .Count=1 .Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"

	"github.com/golang/protobuf/proto"
	"github.com/temoto/devsim/tele"
)

type SessionStat struct {
	Conn  expvar.Int
	Drop  expvar.Int
	Recv  Counters
	Send  Counters
	Error expvar.Int
}

func (ss *SessionStat) String() string {
	return fmt.Sprintf(`{"conn":%d,"drop":%d,"error":%d,"recv":%s,"send":%s}`,
		ss.Conn.Value(), ss.Drop.Value(), ss.Error.Value(), ss.Recv.String(), ss.Send.String())
}

type Counters struct {
	Cmd       CountSizePair
	Discovery CountSizePair
	Tele      CountSizePair
	Total     CountSizePair
}

func (c *Counters) Register(pb proto.Message) {
	size := int64(proto.Size(pb))
	c.Total.Count.Add(1)
	c.Total.Size.Add(size)
	var category *CountSizePair
	switch pb.(type) {
	case *tele.CommandMessage:
		category = &c.Cmd
	case *tele.DiscoveryRequest, *tele.DiscoveryResponse:
		category = &c.Discovery
	case *tele.TelemetryMessage:
		category = &c.Tele
	}
	if category != nil {
		category.Count.Add(1)
		category.Size.Add(size)
	}
}

func (c *Counters) String() string {
	return fmt.Sprintf(`{"cmd.count":%d,"cmd.size":%d,"discovery.count":%d,"discovery.size":%d,"tele.count":%d,"tele.size":%d,"total.count":%d,"total.size":%d}`,
		c.Cmd.Count.Value(), c.Cmd.Size.Value(),
		c.Discovery.Count.Value(), c.Discovery.Size.Value(),
		c.Tele.Count.Value(), c.Tele.Size.Value(),
		c.Total.Count.Value(), c.Total.Size.Value())
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}
