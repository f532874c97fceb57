package device

import (
	"github.com/juju/errors"
	"github.com/temoto/devsim/internal/logic"
	"github.com/temoto/devsim/internal/state"
)

// NewFromGlobal builds device from finalized config, logic included.
func NewFromGlobal(g *state.Global) (*Device, error) {
	c := g.Config
	group, err := c.Discovery.Group()
	if err != nil {
		return nil, errors.Trace(err)
	}
	l, err := logic.New(c.Logic, g.Files)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return New(Options{
		Log: g.Log,
		Identity: Identity{
			ID:          c.Device.ID,
			Class:       c.Class(),
			CommandPort: c.Device.CommandPort,
		},
		Logic:          l,
		Group:          group,
		Interface:      c.Discovery.Interface,
		TTL:            c.Discovery.HopLimit(),
		AdvertiseIP:    c.Discovery.AdvertiseIP,
		Period:         c.Telemetry.Periodicity(),
		Timeout:        c.Session.Timeout(),
		NetworkTimeout: c.Command.NetworkTimeout(),
		ReadLimit:      c.Command.Limit(),
		Mirror:         g.Mirror,
	}), nil
}
