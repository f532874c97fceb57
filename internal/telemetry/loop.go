// Package telemetry runs one periodic sender per gateway session.
package telemetry

import (
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type Producer interface {
	ProduceReading() string
}

// Loop owns its socket and timer, nothing is shared with other sessions.
type Loop struct {
	Log      *log2.Log
	Key      session.Key
	DeviceID string
	Table    *session.Table
	Logic    Producer
	Period   time.Duration
	Timeout  time.Duration
	Mirror   tele.Mirror
	Stat     *telenet.SessionStat
	Now      func() time.Time
}

// Run sends one reading per Period until session times out or stopch is closed.
// Session key is gone from Table when Run returns.
func (l *Loop) Run(stopch <-chan struct{}) error {
	addr, err := l.Key.UDPAddr()
	if err != nil {
		l.Table.Remove(l.Key)
		return errors.Trace(err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		l.Table.Remove(l.Key)
		return errors.Annotatef(err, "session=%s dial", l.Key)
	}
	defer conn.Close()
	l.Log.Debugf("session=%s telemetry start period=%v", l.Key, l.Period)

	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()
	for {
		select {
		case <-stopch:
			l.Table.Remove(l.Key)
			l.Log.Debugf("session=%s telemetry stop", l.Key)
			return nil
		case <-ticker.C:
		}
		if !l.Tick(conn) {
			return nil
		}
	}
}

// Tick returns false after session was evicted.
func (l *Loop) Tick(conn net.Conn) bool {
	now := l.now()
	if !l.Table.IsAlive(l.Key, now, l.Timeout) {
		if l.Table.Evict(l.Key, now, l.Timeout) {
			l.Log.Infof("session=%s timeout, evicted", l.Key)
			return false
		}
		l.Log.Debugf("session=%s refreshed before eviction", l.Key)
	}

	msg := &tele.TelemetryMessage{
		DeviceId: l.DeviceID,
		Data:     l.Logic.ProduceReading(),
	}
	if _, err := telenet.WriteDatagram(conn, msg); err != nil {
		if l.Stat != nil {
			l.Stat.Error.Add(1)
		}
		l.Log.Errorf("session=%s err=%v", l.Key, err)
		return true
	}
	if l.Stat != nil {
		l.Stat.Send.Register(msg)
	}
	if l.Mirror != nil {
		l.Mirror.Telemetry(msg)
	}
	return true
}

func (l *Loop) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
