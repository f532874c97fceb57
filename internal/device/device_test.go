package device

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/devsim/internal/command"
	"github.com/temoto/devsim/internal/logic"
	"github.com/temoto/devsim/internal/state"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

type fakeAnnouncer struct {
	sync.Mutex
	sent []*tele.DiscoveryResponse
}

func (f *fakeAnnouncer) Announce(resp *tele.DiscoveryResponse) error {
	f.Lock()
	f.sent = append(f.sent, resp)
	f.Unlock()
	return nil
}

func (f *fakeAnnouncer) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.sent)
}

type headlight struct {
	sync.Mutex
	state   string
	applied []string
}

func (h *headlight) ProduceReading() string {
	h.Lock()
	defer h.Unlock()
	return "Headlight|" + h.state
}

func (h *headlight) ApplyCommand(s string) error {
	h.Lock()
	defer h.Unlock()
	h.applied = append(h.applied, s)
	h.state = s
	return nil
}

func (h *headlight) appliedCopy() []string {
	h.Lock()
	defer h.Unlock()
	return append([]string(nil), h.applied...)
}

type testGateway struct {
	t    testing.TB
	conn *net.UDPConn
	port int
}

func newTestGateway(t testing.TB) *testGateway {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	return &testGateway{t: t, conn: conn, port: conn.LocalAddr().(*net.UDPAddr).Port}
}

func (g *testGateway) discover(to net.Addr) {
	conn, err := net.DialUDP("udp4", nil, to.(*net.UDPAddr))
	require.NoError(g.t, err)
	defer conn.Close()
	_, err = telenet.WriteDatagram(conn, tele.NewDiscoveryRequest("127.0.0.1", g.port))
	require.NoError(g.t, err)
}

// recv returns nil on timeout
func (g *testGateway) recv(timeout time.Duration) *tele.TelemetryMessage {
	buf := make([]byte, telenet.MaxDatagramSize)
	require.NoError(g.t, g.conn.SetReadDeadline(time.Now().Add(timeout)))
	n, _, err := g.conn.ReadFromUDP(buf)
	if telenet.IsTimeout(err) {
		return nil
	}
	require.NoError(g.t, err)
	var msg tele.TelemetryMessage
	require.NoError(g.t, telenet.UnmarshalDatagram(buf[:n], &msg))
	return &msg
}

func startDevice(t testing.TB, opt Options) (*Device, net.Addr) {
	d := New(opt)
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	require.NoError(t, d.Serve(conn))
	return d, conn.LocalAddr()
}

func TestHeadlightScenario(t *testing.T) {
	t.Parallel()
	ann := &fakeAnnouncer{}
	hl := &headlight{state: "on"}
	d, discoveryAddr := startDevice(t, Options{
		Log:            log2.NewTest(t, log2.LDebug),
		Identity:       Identity{ID: "HL-1", Class: tele.DeviceClass_ACTUATOR, CommandPort: 0},
		Logic:          hl,
		AdvertiseIP:    "127.0.0.1",
		Announcer:      ann,
		Period:         50 * time.Millisecond,
		Timeout:        time.Second,
		NetworkTimeout: time.Second,
	})
	defer d.Stop()
	gw := newTestGateway(t)
	defer gw.conn.Close()

	gw.discover(discoveryAddr)
	msg := gw.recv(5 * time.Second)
	require.NotNil(t, msg)
	assert.Equal(t, "HL-1", msg.DeviceId)
	assert.Equal(t, "Headlight|on", msg.Data)
	require.Equal(t, 1, ann.count())
	assert.Equal(t, "HL-1", ann.sent[0].DeviceId)
	assert.Equal(t, "127.0.0.1", ann.sent[0].Ip)
	assert.Equal(t, tele.DeviceClass_ACTUATOR, ann.sent[0].DeviceClass)
	sessions := d.Sessions()
	require.Equal(t, 1, len(sessions))
	assert.Equal(t, gw.port, sessions[0].Key.Port)

	// refresh does not announce again
	gw.discover(discoveryAddr)

	select {
	case <-d.CommandReady():
	case <-time.After(5 * time.Second):
		t.Fatal("command channel not started")
	}
	require.NoError(t, command.Send(context.Background(), d.CommandAddr().String(), "HL-1", "off", time.Second))
	deadline := time.Now().Add(5 * time.Second)
	for len(hl.appliedCopy()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, []string{"off"}, hl.appliedCopy())

	// latest reading reflects applied command
	for {
		msg = gw.recv(time.Second)
		require.NotNil(t, msg)
		if msg.Data == "Headlight|off" {
			break
		}
	}

	// no more discovery: session expires, telemetry stops
	deadline = time.Now().Add(5 * time.Second)
	for len(d.Sessions()) != 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, 0, len(d.Sessions()))
	for len(d.command.Gateways()) != 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Empty(t, d.command.Gateways())
	// drain in-flight datagrams, then silence
	for gw.recv(100*time.Millisecond) != nil {
	}
	assert.Nil(t, gw.recv(200*time.Millisecond))
	assert.Equal(t, 1, ann.count())
}

func TestSensorHasNoCommandChannel(t *testing.T) {
	t.Parallel()
	ann := &fakeAnnouncer{}
	d, discoveryAddr := startDevice(t, Options{
		Log:       log2.NewTest(t, log2.LDebug),
		Identity:  Identity{ID: "CarLoc-3", Class: tele.DeviceClass_SENSOR, CommandPort: 9990},
		Logic:     &headlight{state: "on"},
		Announcer: ann,
		Period:    20 * time.Millisecond,
		Timeout:   time.Second,
	})
	gw := newTestGateway(t)
	defer gw.conn.Close()

	gw.discover(discoveryAddr)
	require.NotNil(t, gw.recv(5*time.Second))
	assert.Nil(t, d.CommandAddr())
	assert.Nil(t, d.CommandStat())
	assert.Equal(t, int32(9990), d.DiscoveryResponse().Port)

	d.Stop()
	assert.Equal(t, 0, len(d.Sessions()))
}

func TestTwoGateways(t *testing.T) {
	t.Parallel()
	ann := &fakeAnnouncer{}
	d, discoveryAddr := startDevice(t, Options{
		Log:       log2.NewTest(t, log2.LDebug),
		Identity:  Identity{ID: "AC-2", Class: tele.DeviceClass_SENSOR},
		Logic:     &headlight{state: "on"},
		Announcer: ann,
		Period:    20 * time.Millisecond,
		Timeout:   200 * time.Millisecond,
	})
	defer d.Stop()
	a := newTestGateway(t)
	defer a.conn.Close()
	b := newTestGateway(t)
	defer b.conn.Close()

	a.discover(discoveryAddr)
	b.discover(discoveryAddr)
	require.NotNil(t, a.recv(5*time.Second))
	require.NotNil(t, b.recv(5*time.Second))
	assert.Equal(t, 2, ann.count())

	// keep only b alive
	stop := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(stop) {
		b.discover(discoveryAddr)
		time.Sleep(50 * time.Millisecond)
	}
	sessions := d.Sessions()
	require.Equal(t, 1, len(sessions))
	assert.Equal(t, b.port, sessions[0].Key.Port)
	require.NotNil(t, b.recv(time.Second))
}

func TestNewFromGlobal(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	fs := state.NewMockFullReader(map[string]string{
		"device.hcl": `
device {
	id = "CarLoc-3"
	class = "sensor"
	command_port = 9995
}
discovery { advertise_ip = "192.0.2.5" }
logic {
	kind = "carloc"
	csv_path = "track.csv"
}
`,
		"track.csv": "x,y\n1,2\n3,4\n",
	})
	ctx, g := state.NewContext(log, fs)
	g.MustInit(ctx, state.MustReadConfig(log, fs, "device.hcl"))
	d, err := NewFromGlobal(g)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "CarLoc-3", Class: tele.DeviceClass_SENSOR, CommandPort: 9995}, d.Identity())
	assert.False(t, d.Identity().HasCommandChannel())
	assert.Equal(t, "192.0.2.5", d.DiscoveryResponse().Ip)
	assert.IsType(t, &logic.CarLoc{}, d.opt.Logic)
	assert.Equal(t, "3.0|4.0", d.opt.Logic.ProduceReading())
}

func TestStopDuringServe(t *testing.T) {
	t.Parallel()
	for i := 0; i < 50; i++ {
		d := New(Options{
			Log:       log2.NewTest(t, log2.LError),
			Identity:  Identity{ID: "HL-1", Class: tele.DeviceClass_SENSOR},
			Logic:     &headlight{state: "on"},
			Announcer: &fakeAnnouncer{},
		})
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
		require.NoError(t, err)
		served := make(chan error, 1)
		go func() { served <- d.Serve(conn) }()
		d.Stop()
		err = <-served
		if err != nil {
			assert.Equal(t, telenet.ErrClosing, err)
		}
		// socket is released either by Stop or by refused Serve
		assert.Error(t, conn.SetReadDeadline(time.Now()))
	}
}
