package command

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/devsim/helpers"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/log2"
	telenet "github.com/temoto/devsim/tele/net"
)

type recordApplier struct {
	sync.Mutex
	ch   chan string
	fail bool
}

func newRecordApplier() *recordApplier { return &recordApplier{ch: make(chan string, 16)} }

func (r *recordApplier) ApplyCommand(s string) error {
	r.ch <- s
	if r.fail {
		return errors.Errorf("invalid command=%s", s)
	}
	return nil
}

func (r *recordApplier) expect(t testing.TB, s string) {
	select {
	case got := <-r.ch:
		assert.Equal(t, s, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("command=%s not applied", s)
	}
}

func (r *recordApplier) expectNone(t testing.TB) {
	select {
	case got := <-r.ch:
		t.Errorf("unexpected command=%s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func startChannel(t testing.TB, logic Applier) *Channel {
	c := NewChannel(Options{
		Log:            log2.NewTest(t, log2.LDebug),
		Addr:           "127.0.0.1:0",
		DeviceID:       "HL-1",
		Logic:          logic,
		NetworkTimeout: time.Second,
		ReadLimit:      1024,
	})
	c.Start()
	select {
	case <-c.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("listener not ready")
	}
	return c
}

func writeRaw(t testing.TB, addr net.Addr, b []byte) {
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	_, err = conn.Write(b)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestFramed(t *testing.T) {
	t.Parallel()
	logic := newRecordApplier()
	c := startChannel(t, logic)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, Send(ctx, c.Addr().String(), "HL-1", "off", time.Second))
	logic.expect(t, "off")
	logic.expectNone(t)
	assert.Equal(t, int64(1), c.Stat().Recv.Cmd.Count.Value())
}

func TestLegacyUnframed(t *testing.T) {
	t.Parallel()
	logic := newRecordApplier()
	c := startChannel(t, logic)
	defer c.Close()

	// bare protobuf then close, as written by older gateways
	writeRaw(t, c.Addr(), []byte("\x0a\x04HL-1\x12\x02on"))
	logic.expect(t, "on")
}

func TestGarbageDoesNotStopListener(t *testing.T) {
	t.Parallel()
	logic := newRecordApplier()
	c := startChannel(t, logic)
	defer c.Close()

	writeRaw(t, c.Addr(), []byte{0x76, 0x02, 0x00, 0x05, 0xff})
	writeRaw(t, c.Addr(), []byte{0xff, 0xff, 0xff})
	writeRaw(t, c.Addr(), nil)
	require.NoError(t, Send(context.Background(), c.Addr().String(), "HL-1", "on", time.Second))
	logic.expect(t, "on")
	logic.expectNone(t)
}

func TestApplyErrorLogged(t *testing.T) {
	t.Parallel()
	logic := newRecordApplier()
	logic.fail = true
	c := startChannel(t, logic)
	defer c.Close()

	require.NoError(t, Send(context.Background(), c.Addr().String(), "other-device", "dim", time.Second))
	logic.expect(t, "dim")
	require.NoError(t, Send(context.Background(), c.Addr().String(), "HL-1", "off", time.Second))
	logic.expect(t, "off")
}

func TestConcurrentConnections(t *testing.T) {
	t.Parallel()
	logic := newRecordApplier()
	c := startChannel(t, logic)
	defer c.Close()

	// idle connection must not block others
	idle, err := net.Dial("tcp", c.Addr().String())
	require.NoError(t, err)
	defer idle.Close()

	const N = 8
	var wg sync.WaitGroup
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Send(context.Background(), c.Addr().String(), "HL-1", "on", time.Second))
		}()
	}
	wg.Wait()
	for i := 0; i < N; i++ {
		logic.expect(t, "on")
	}
	logic.expectNone(t)
}

func TestBindRetry(t *testing.T) {
	t.Parallel()
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := blocker.Addr().String()

	logic := newRecordApplier()
	c := NewChannel(Options{
		Log:     log2.NewTest(t, log2.LDebug),
		Addr:    addr,
		Logic:   logic,
		Backoff: helpers.Backoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond, K: 2},
	})
	c.Start()
	defer c.Close()

	select {
	case <-c.Ready():
		t.Fatal("bound while port busy")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, blocker.Close())
	select {
	case <-c.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("bind retry did not succeed")
	}
	require.NoError(t, Send(context.Background(), addr, "", "on", time.Second))
	logic.expect(t, "on")
}

func TestRegisterGateways(t *testing.T) {
	t.Parallel()
	c := NewChannel(Options{Log: log2.NewTest(t, log2.LDebug), Addr: "127.0.0.1:0", Logic: newRecordApplier()})
	a := session.Key{IP: "10.0.0.2", Port: 9991}
	b := session.Key{IP: "10.0.0.1", Port: 9991}
	c.Register(a)
	c.Register(b)
	c.Register(a)
	assert.Equal(t, []session.Key{b, a}, c.Gateways())
	c.Unregister(b)
	assert.Equal(t, []session.Key{a}, c.Gateways())
	// old session of a ends after new one registered
	c.Unregister(a)
	assert.Equal(t, []session.Key{a}, c.Gateways())
	c.Unregister(a)
	assert.Empty(t, c.Gateways())
	c.Unregister(a)
	assert.Empty(t, c.Gateways())
	assert.Nil(t, c.Addr())
	require.NoError(t, c.Close())
}

func TestCloseDropsIdle(t *testing.T) {
	t.Parallel()
	c := NewChannel(Options{
		Log:            log2.NewTest(t, log2.LDebug),
		Addr:           "127.0.0.1:0",
		Logic:          newRecordApplier(),
		NetworkTimeout: time.Hour,
	})
	c.Start()
	<-c.Ready()
	idle, err := net.Dial("tcp", c.Addr().String())
	require.NoError(t, err)
	defer idle.Close()
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on idle connection")
	}
	_, err = telenet.DialContext(context.Background(), net.Dialer{}, c.Addr().String(), 100*time.Millisecond)
	assert.Error(t, err)
}
