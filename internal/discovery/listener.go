// Package discovery finds gateways through multicast DiscoveryRequest
// and answers with this device's DiscoveryResponse.
package discovery

import (
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type Listener struct {
	Log       *log2.Log
	Table     *session.Table
	Responder Announcer
	// Self is read-only template for every response.
	Self tele.DiscoveryResponse
	// OnSession runs once per new session, after response was sent.
	OnSession func(session.Key)
	Now       func() time.Time
	Stat      *telenet.SessionStat
}

// Serve reads datagrams until conn is closed or a is stopped.
// Each datagram is handled in its own goroutine, registered as a subtask.
func (l *Listener) Serve(conn *net.UDPConn, a *alive.Alive) {
	buf := make([]byte, telenet.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if !a.IsRunning() {
			return
		}
		if err != nil {
			if telenet.IsClosed(err) {
				l.Log.Debugf("discovery listener closed")
				return
			}
			l.Log.Errorf("discovery read err=%v", err)
			continue
		}
		if !a.Add(1) {
			return
		}
		b := make([]byte, n)
		copy(b, buf[:n])
		go func() {
			defer a.Done()
			l.HandleDatagram(b, from)
		}()
	}
}

// HandleDatagram never fails, malformed input is logged and dropped.
func (l *Listener) HandleDatagram(b []byte, from *net.UDPAddr) {
	var req tele.DiscoveryRequest
	if err := telenet.UnmarshalDatagram(b, &req); err != nil {
		l.drop()
		l.Log.Errorf("discovery from=%s len=%d err=%v", addrString(from), len(b), err)
		return
	}
	if l.Stat != nil {
		l.Stat.Recv.Register(&req)
	}
	if req.Kind != tele.KindDiscoveryRequest {
		// includes responses of other devices on the same group
		l.Log.Debugf("discovery from=%s ignore kind=%q", addrString(from), req.Kind)
		return
	}
	key, err := RequestKey(&req, from)
	if err != nil {
		l.drop()
		l.Log.Errorf("discovery from=%s err=%v", addrString(from), err)
		return
	}

	if !l.Table.Upsert(key, l.now()) {
		l.Log.Debugf("session=%s refresh", key)
		return
	}
	l.Log.Infof("session=%s new gateway", key)
	if err := l.Responder.Announce(l.response()); err != nil {
		l.Log.Errorf("session=%s err=%v", key, err)
	}
	if l.OnSession != nil {
		l.OnSession(key)
	}
}

// RequestKey takes gateway address from request fields.
// Empty ip means datagram source ip.
func RequestKey(req *tele.DiscoveryRequest, from *net.UDPAddr) (session.Key, error) {
	ipString := req.Ip
	if ipString == "" && from != nil {
		ipString = from.IP.String()
	}
	ip := net.ParseIP(ipString)
	if ip == nil {
		return session.Key{}, errors.Annotatef(tele.ErrInvalidAddr, "ip=%q", req.Ip)
	}
	if req.Port <= 0 || req.Port > 0xffff {
		return session.Key{}, errors.Annotatef(tele.ErrInvalidAddr, "port=%d", req.Port)
	}
	return session.Key{IP: ip.String(), Port: int(req.Port)}, nil
}

func (l *Listener) response() *tele.DiscoveryResponse {
	return &tele.DiscoveryResponse{
		DeviceId:    l.Self.DeviceId,
		Ip:          l.Self.Ip,
		Port:        l.Self.Port,
		DeviceClass: l.Self.DeviceClass,
	}
}

func (l *Listener) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Listener) drop() {
	if l.Stat != nil {
		l.Stat.Drop.Add(1)
	}
}

func addrString(a *net.UDPAddr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
