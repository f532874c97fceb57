package telenet

import (
	"context"
	"net"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"golang.org/x/net/ipv4"
)

// Large enough for any UDP payload, smaller datagrams don't need more.
const MaxDatagramSize = 64 << 10

// ListenConfig allows several processes on one host to bind the same port.
func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{Control: reuseControl}
}

// ListenMulticast binds 0.0.0.0:<group port> and joins group.
// Empty ifname lets the kernel choose interface.
func ListenMulticast(ctx context.Context, group *net.UDPAddr, ifname string) (*net.UDPConn, error) {
	ifi, err := interfaceByName(ifname)
	if err != nil {
		return nil, err
	}
	pc, err := ListenConfig().ListenPacket(ctx, "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(group.Port)))
	if err != nil {
		return nil, errors.Annotatef(err, "listen port=%d", group.Port)
	}
	conn := pc.(*net.UDPConn)
	p := ipv4.NewPacketConn(conn)
	if err = p.JoinGroup(ifi, &net.UDPAddr{IP: group.IP}); err != nil {
		_ = conn.Close()
		return nil, errors.Annotatef(err, "join group=%s", group.IP)
	}
	// several devices on one host must hear each other
	_ = p.SetMulticastLoopback(true)
	return conn, nil
}

// DialMulticast returns socket connected to group with given hop limit.
func DialMulticast(group *net.UDPAddr, ttl int, ifname string) (*net.UDPConn, error) {
	ifi, err := interfaceByName(ifname)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp4", nil, group)
	if err != nil {
		return nil, errors.Annotatef(err, "dial group=%s", group)
	}
	p := ipv4.NewPacketConn(conn)
	if err = p.SetMulticastTTL(ttl); err != nil {
		_ = conn.Close()
		return nil, errors.Annotatef(err, "SetMulticastTTL ttl=%d", ttl)
	}
	_ = p.SetMulticastLoopback(true)
	if ifi != nil {
		if err = p.SetMulticastInterface(ifi); err != nil {
			_ = conn.Close()
			return nil, errors.Annotatef(err, "SetMulticastInterface if=%s", ifi.Name)
		}
	}
	return conn, nil
}

// WriteDatagram sends one message as one datagram on connected socket.
func WriteDatagram(conn net.Conn, pb proto.Message) (int, error) {
	b, err := proto.Marshal(pb)
	if err != nil {
		return 0, errors.Annotate(err, "marshal")
	}
	n, err := conn.Write(b)
	if err != nil {
		return n, errors.Annotatef(err, "write remote=%s", addrString(conn.RemoteAddr()))
	}
	return n, nil
}

func UnmarshalDatagram(b []byte, pb proto.Message) error {
	return errors.Annotate(proto.Unmarshal(b, pb), "unmarshal")
}

// LocalIPFor returns local address the kernel would use to reach remote.
// No packets are sent.
func LocalIPFor(remote *net.UDPAddr) (net.IP, error) {
	conn, err := net.DialUDP("udp4", nil, remote)
	if err != nil {
		return nil, errors.Annotatef(err, "route remote=%s", remote)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

func interfaceByName(name string) (*net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, errors.Annotatef(err, "interface=%s", name)
	}
	return ifi, nil
}
