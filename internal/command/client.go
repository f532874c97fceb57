package command

import (
	"context"
	"time"

	"github.com/temoto/devsim/tele"
	telenet "github.com/temoto/devsim/tele/net"
)

// Send delivers one framed CommandMessage to device command port.
func Send(ctx context.Context, addr, deviceID, command string, timeout time.Duration) error {
	msg := &tele.CommandMessage{DeviceId: deviceID, Command: command}
	return telenet.SendStream(ctx, addr, msg, timeout)
}
