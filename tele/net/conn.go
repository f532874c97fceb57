package telenet

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/devsim/helpers"
)

var ErrClosing = fmt.Errorf("closing")

// DialContext accepts "host:port" or "tcp://host:port".
func DialContext(ctx context.Context, dialer net.Dialer, addr string, timeout time.Duration) (net.Conn, error) {
	if dialer.Timeout == 0 {
		dialer.Timeout = timeout
	}
	if deadline, _ := ctx.Deadline(); !deadline.IsZero() {
		if timeout := time.Until(deadline); timeout > 0 && (dialer.Timeout == 0 || timeout < dialer.Timeout) {
			dialer.Timeout = timeout
		} else if timeout < 0 {
			return nil, context.Canceled
		}
	}

	scheme, hostport := "tcp", addr
	if strings.Contains(addr, "://") {
		var err error
		if scheme, hostport, err = parseURI(addr); err != nil {
			return nil, errors.Annotate(err, "parse url")
		}
	}
	if scheme != "tcp" {
		return nil, errors.Errorf("unknown protocol=%s", scheme)
	}
	return dialer.DialContext(ctx, "tcp", hostport)
}

// SendStream delivers one framed message over a fresh connection, then closes it.
func SendStream(ctx context.Context, addr string, pb proto.Message, timeout time.Duration) error {
	b, err := FrameMarshal(pb)
	if err != nil {
		return errors.Annotate(err, "frame")
	}
	conn, err := DialContext(ctx, net.Dialer{}, addr, timeout)
	if err != nil {
		return errors.Annotatef(err, "dial addr=%s", addr)
	}
	defer conn.Close()
	if timeout != 0 {
		if err = conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return errors.Annotate(err, "SetWriteDeadline")
		}
	}
	if err = helpers.WriteAll(conn, b); err != nil {
		return errors.Annotatef(err, "write addr=%s", addr)
	}
	return nil
}
