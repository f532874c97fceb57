// Package command is actuator side of gateway -> device control messages.
// One CommandMessage per accepted connection.
package command

import (
	"bufio"
	"context"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/devsim/helpers"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type Applier interface {
	ApplyCommand(string) error
}

type Options struct {
	Log      *log2.Log
	Addr     string
	DeviceID string
	Logic    Applier

	NetworkTimeout time.Duration
	ReadLimit      uint32
	// bind retry, zero value gives 100ms..5s
	Backoff helpers.Backoff
	Stat    *telenet.SessionStat
}

type Channel struct {
	alive *alive.Alive
	log   *log2.Log
	opt   Options
	ready chan struct{}
	once  sync.Once

	conns struct {
		sync.Mutex
		m map[net.Conn]struct{}
	}
	gateways struct {
		sync.RWMutex
		m map[session.Key]int
	}
	listen struct {
		sync.Mutex
		ll net.Listener
	}
}

func NewChannel(opt Options) *Channel {
	if opt.ReadLimit == 0 {
		opt.ReadLimit = telenet.DefaultReadLimit
	}
	if opt.Backoff.Min == 0 {
		opt.Backoff.Min = 100 * time.Millisecond
	}
	if opt.Backoff.Max == 0 {
		opt.Backoff.Max = 5 * time.Second
	}
	if opt.Backoff.K == 0 {
		opt.Backoff.K = 2
	}
	if opt.Stat == nil {
		opt.Stat = &telenet.SessionStat{}
	}
	c := &Channel{
		alive: alive.NewAlive(),
		log:   opt.Log,
		opt:   opt,
		ready: make(chan struct{}),
	}
	c.conns.m = make(map[net.Conn]struct{})
	c.gateways.m = make(map[session.Key]int)
	return c
}

// Start binds listener in background. Bind errors are retried until Close.
// Only first call has effect.
func (c *Channel) Start() {
	c.once.Do(func() {
		if !c.alive.Add(1) {
			return
		}
		go c.bindLoop()
	})
}

// Ready is closed when listener is bound.
func (c *Channel) Ready() <-chan struct{} { return c.ready }

// Addr is nil until Ready.
func (c *Channel) Addr() net.Addr {
	c.listen.Lock()
	defer c.listen.Unlock()
	if c.listen.ll == nil {
		return nil
	}
	return c.listen.ll.Addr()
}

// Register records gateway that is expected to send commands.
// Connections from any address are served regardless.
// Registrations are counted, each Register needs one Unregister.
func (c *Channel) Register(key session.Key) {
	helpers.WithLock(&c.gateways, func() {
		c.gateways.m[key]++
	})
	c.log.Debugf("command gateway=%s registered", key)
}

func (c *Channel) Unregister(key session.Key) {
	helpers.WithLock(&c.gateways, func() {
		if n := c.gateways.m[key] - 1; n > 0 {
			c.gateways.m[key] = n
		} else {
			delete(c.gateways.m, key)
		}
	})
}

func (c *Channel) Gateways() []session.Key {
	c.gateways.RLock()
	keys := make([]session.Key, 0, len(c.gateways.m))
	for k := range c.gateways.m {
		keys = append(keys, k)
	}
	c.gateways.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (c *Channel) Stat() *telenet.SessionStat { return c.opt.Stat }

// Close stops accepting, drops open connections and waits for handlers.
func (c *Channel) Close() error {
	c.alive.Stop()
	var err error
	helpers.WithLock(&c.listen, func() {
		if c.listen.ll != nil {
			err = c.listen.ll.Close()
		}
	})
	helpers.WithLock(&c.conns, func() {
		for conn := range c.conns.m {
			_ = conn.Close()
		}
	})
	c.alive.Wait()
	return err
}

func (c *Channel) bindLoop() {
	defer c.alive.Done()
	for {
		ll, err := telenet.ListenConfig().Listen(context.Background(), "tcp", c.opt.Addr)
		if err == nil {
			ok := false
			helpers.WithLock(&c.listen, func() {
				// Close may have run between Listen and here
				if ok = c.alive.IsRunning(); ok {
					c.listen.ll = ll
				}
			})
			if !ok {
				_ = ll.Close()
				return
			}
			c.log.Infof("command listen addr=%s", ll.Addr())
			close(c.ready)
			c.acceptLoop(ll)
			return
		}

		delay := c.opt.Backoff.DelayAfter(false)
		c.log.Errorf("command listen addr=%s retry=%v err=%v", c.opt.Addr, delay, err)
		select {
		case <-c.alive.StopChan():
			return
		case <-time.After(delay):
		}
	}
}

func (c *Channel) acceptLoop(ll net.Listener) {
	for {
		conn, err := ll.Accept()
		if !c.alive.IsRunning() {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if err != nil {
			if telenet.IsClosed(err) {
				return
			}
			c.log.Errorf("command accept listen=%s err=%v", ll.Addr(), err)
			time.Sleep(c.opt.Backoff.Min)
			continue
		}

		if !c.alive.Add(1) { // one alive subtask for each connection
			_ = conn.Close()
			return
		}
		helpers.WithLock(&c.conns, func() { c.conns.m[conn] = struct{}{} })
		if !c.alive.IsRunning() {
			_ = conn.Close()
		}
		go c.processConn(conn)
	}
}

func (c *Channel) processConn(conn net.Conn) {
	defer c.alive.Done()
	defer func() {
		_ = conn.Close()
		helpers.WithLock(&c.conns, func() { delete(c.conns.m, conn) })
	}()
	c.opt.Stat.Conn.Add(1)
	addr := conn.RemoteAddr().String()

	if c.opt.NetworkTimeout != 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.opt.NetworkTimeout))
	}
	var dec telenet.Decoder
	dec.Attach(bufio.NewReader(conn), c.opt.ReadLimit)
	var msg tele.CommandMessage
	if err := dec.Read(&msg); err != nil {
		if err == io.EOF {
			c.log.Debugf("command addr=%s closed without message", addr)
			return
		}
		c.opt.Stat.Drop.Add(1)
		c.log.Errorf("command addr=%s err=%v", addr, err)
		return
	}
	c.opt.Stat.Recv.Register(&msg)

	if msg.DeviceId != c.opt.DeviceID {
		c.log.Infof("command addr=%s device_id=%q not ours=%q, applying anyway", addr, msg.DeviceId, c.opt.DeviceID)
	}
	c.log.Infof("command addr=%s command=%q", addr, msg.Command)
	if err := c.opt.Logic.ApplyCommand(msg.Command); err != nil {
		c.opt.Stat.Error.Add(1)
		c.log.Errorf("command addr=%s command=%q err=%v", addr, msg.Command, err)
	}
}
