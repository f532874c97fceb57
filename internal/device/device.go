// Package device wires discovery, sessions, telemetry and commands for one simulated device.
package device

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/devsim/internal/command"
	"github.com/temoto/devsim/internal/discovery"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/internal/telemetry"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	tele_config "github.com/temoto/devsim/tele/config"
	telenet "github.com/temoto/devsim/tele/net"
)

// Identity is immutable for process lifetime.
type Identity struct {
	ID          string
	Class       tele.DeviceClass
	CommandPort int
}

func (i Identity) HasCommandChannel() bool { return i.Class == tele.DeviceClass_ACTUATOR }

type Logic interface {
	ProduceReading() string
	ApplyCommand(string) error
}

type Options struct {
	Log      *log2.Log
	Identity Identity
	Logic    Logic

	Group       *net.UDPAddr
	Interface   string
	TTL         int
	AdvertiseIP string
	// nil means multicast Responder on Group
	Announcer discovery.Announcer

	Period         time.Duration
	Timeout        time.Duration
	NetworkTimeout time.Duration
	ReadLimit      uint32
	Mirror         tele.Mirror
}

type Device struct {
	alive *alive.Alive
	log   *log2.Log
	opt   Options
	table *session.Table
	stat  telenet.SessionStat

	listener *discovery.Listener
	command  *command.Channel // nil for sensor

	mu   sync.Mutex
	conn *net.UDPConn
}

func New(opt Options) *Device {
	if opt.Mirror == nil {
		opt.Mirror = tele.Noop{}
	}
	if opt.TTL <= 0 {
		opt.TTL = tele_config.DefaultTTL
	}
	if opt.Period <= 0 {
		opt.Period = tele_config.DefaultPeriodicity
	}
	if opt.Timeout <= 0 {
		opt.Timeout = tele_config.DefaultSessionTimeout
	}
	d := &Device{
		alive: alive.NewAlive(),
		log:   opt.Log,
		opt:   opt,
		table: session.NewTable(),
	}
	if opt.Announcer == nil {
		opt.Announcer = &discovery.Responder{
			Log:       opt.Log,
			Group:     opt.Group,
			TTL:       opt.TTL,
			Interface: opt.Interface,
			Stat:      &d.stat,
		}
	}
	if opt.Identity.HasCommandChannel() {
		d.command = command.NewChannel(command.Options{
			Log:            opt.Log,
			Addr:           net.JoinHostPort("", strconv.Itoa(opt.Identity.CommandPort)),
			DeviceID:       opt.Identity.ID,
			Logic:          opt.Logic,
			NetworkTimeout: opt.NetworkTimeout,
			ReadLimit:      opt.ReadLimit,
		})
	}
	d.listener = &discovery.Listener{
		Log:       opt.Log,
		Table:     d.table,
		Responder: opt.Announcer,
		Self: tele.DiscoveryResponse{
			DeviceId:    opt.Identity.ID,
			Ip:          d.advertiseIP(),
			Port:        int32(opt.Identity.CommandPort),
			DeviceClass: opt.Identity.Class,
		},
		OnSession: d.onSession,
		Stat:      &d.stat,
	}
	d.opt = opt
	return d
}

// Start joins discovery multicast group and serves it in background.
func (d *Device) Start(ctx context.Context) error {
	conn, err := telenet.ListenMulticast(ctx, d.opt.Group, d.opt.Interface)
	if err != nil {
		return errors.Annotate(err, "device start")
	}
	d.log.Infof("device id=%s class=%s listen group=%s", d.opt.Identity.ID, d.opt.Identity.Class, d.opt.Group)
	return d.Serve(conn)
}

// Serve takes ownership of discovery socket. Conn needs not be multicast, used by tests.
func (d *Device) Serve(conn *net.UDPConn) error {
	// published before Add, so Stop either sees conn or Add fails
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()
	if !d.alive.Add(1) {
		_ = conn.Close()
		return telenet.ErrClosing
	}
	go func() {
		defer d.alive.Done()
		d.listener.Serve(conn, d.alive)
	}()
	return nil
}

// Stop releases all sockets and waits for every loop to finish.
func (d *Device) Stop() {
	d.alive.Stop()
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	if d.command != nil {
		_ = d.command.Close()
	}
	d.alive.Wait()
}

func (d *Device) Identity() Identity                         { return d.opt.Identity }
func (d *Device) Sessions() []session.Session                { return d.table.Sessions() }
func (d *Device) Stat() *telenet.SessionStat                 { return &d.stat }
func (d *Device) DiscoveryResponse() *tele.DiscoveryResponse { return &d.listener.Self }

// CommandStat is nil for sensor.
func (d *Device) CommandStat() *telenet.SessionStat {
	if d.command == nil {
		return nil
	}
	return d.command.Stat()
}

// CommandAddr is nil until command channel is bound.
func (d *Device) CommandAddr() net.Addr {
	if d.command == nil {
		return nil
	}
	return d.command.Addr()
}

func (d *Device) CommandReady() <-chan struct{} {
	if d.command == nil {
		return nil
	}
	return d.command.Ready()
}

// Runs once per new session, in discovery datagram goroutine.
func (d *Device) onSession(key session.Key) {
	if d.command != nil {
		d.command.Start()
		d.command.Register(key)
	}
	loop := &telemetry.Loop{
		Log:      d.log,
		Key:      key,
		DeviceID: d.opt.Identity.ID,
		Table:    d.table,
		Logic:    d.opt.Logic,
		Period:   d.opt.Period,
		Timeout:  d.opt.Timeout,
		Mirror:   d.opt.Mirror,
		Stat:     &d.stat,
	}
	if !d.alive.Add(1) {
		d.table.Remove(key)
		if d.command != nil {
			d.command.Unregister(key)
		}
		return
	}
	go func() {
		defer d.alive.Done()
		if err := loop.Run(d.alive.StopChan()); err != nil {
			d.log.Errorf("session=%s err=%v", key, errors.ErrorStack(err))
		}
		// balances Register above, a newer session of same key holds its own
		if d.command != nil {
			d.command.Unregister(key)
		}
	}()
}

func (d *Device) advertiseIP() string {
	if d.opt.AdvertiseIP != "" {
		return d.opt.AdvertiseIP
	}
	if d.opt.Group != nil {
		if ip, err := telenet.LocalIPFor(d.opt.Group); err == nil && !ip.IsUnspecified() {
			return ip.String()
		}
	}
	return "127.0.0.1"
}
