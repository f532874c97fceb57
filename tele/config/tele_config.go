// Separate package is workaround to import cycles.
package tele_config

import (
	"net"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/devsim/helpers"
)

const (
	DefaultMulticastGroup = "224.0.0.1:9999"
	DefaultTTL            = 255
	DefaultPeriodicity    = 5 * time.Second
	DefaultSessionTimeout = 15 * time.Second
	DefaultNetworkTimeout = 30 * time.Second
	DefaultReadLimit      = 16 << 10
)

type Device struct {
	ID          string `hcl:"id" yaml:"id"`
	Class       string `hcl:"class" yaml:"class"`
	CommandPort int    `hcl:"command_port" yaml:"command_port"`
}

type Discovery struct {
	MulticastGroup string `hcl:"multicast_group" yaml:"multicast_group"`
	Interface      string `hcl:"interface" yaml:"interface"`
	AdvertiseIP    string `hcl:"advertise_ip" yaml:"advertise_ip"`
	TTL            int    `hcl:"ttl" yaml:"ttl"`
}

type Telemetry struct {
	PeriodicitySec int `hcl:"periodicity_sec" yaml:"periodicity_sec"`
}

type Session struct {
	TimeoutSec int `hcl:"timeout_sec" yaml:"timeout_sec"`
}

type Command struct {
	NetworkTimeoutSec int    `hcl:"network_timeout_sec" yaml:"network_timeout_sec"`
	ReadLimit         uint32 `hcl:"read_limit" yaml:"read_limit"`
}

type Mirror struct {
	MqttBroker   string `hcl:"mqtt_broker" yaml:"mqtt_broker"`
	MqttLogDebug bool   `hcl:"mqtt_log_debug" yaml:"mqtt_log_debug"`
	MqttPassword string `hcl:"mqtt_password" yaml:"mqtt_password"` // secret
	KeepaliveSec int    `hcl:"keepalive_sec" yaml:"keepalive_sec"`
}

func (d *Discovery) Group() (*net.UDPAddr, error) {
	s := d.MulticastGroup
	if s == "" {
		s = DefaultMulticastGroup
	}
	addr, err := net.ResolveUDPAddr("udp4", s)
	if err != nil {
		return nil, errors.Annotatef(err, "multicast_group=%s", s)
	}
	if !addr.IP.IsMulticast() {
		return nil, errors.NotValidf("multicast_group=%s not multicast", s)
	}
	return addr, nil
}

func (d *Discovery) HopLimit() int {
	if d.TTL <= 0 {
		return DefaultTTL
	}
	return d.TTL
}

func (t *Telemetry) Periodicity() time.Duration {
	return helpers.IntSecondDefault(t.PeriodicitySec, DefaultPeriodicity)
}

func (s *Session) Timeout() time.Duration {
	return helpers.IntSecondDefault(s.TimeoutSec, DefaultSessionTimeout)
}

func (c *Command) NetworkTimeout() time.Duration {
	return helpers.IntSecondDefault(c.NetworkTimeoutSec, DefaultNetworkTimeout)
}

func (c *Command) Limit() uint32 {
	if c.ReadLimit == 0 {
		return DefaultReadLimit
	}
	return c.ReadLimit
}

func (d *Device) CommandAddr() string {
	return net.JoinHostPort("", strconv.Itoa(d.CommandPort))
}
