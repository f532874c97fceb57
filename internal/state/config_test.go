package state

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		source    string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "empty", func(t testing.TB, c *Config) {
			_, err := uuid.Parse(c.Device.ID)
			assert.NoError(t, err, "generated device id")
			assert.Equal(t, "sensor", c.Device.Class)
			assert.Equal(t, 5*time.Second, c.Telemetry.Periodicity())
			assert.Equal(t, 15*time.Second, c.Session.Timeout())
			g, err := c.Discovery.Group()
			require.NoError(t, err)
			assert.Equal(t, "224.0.0.1:9999", g.String())
		}, "logic.kind=empty not valid"},

		{"hcl", "device.hcl", func(t testing.TB, c *Config) {
			assert.Equal(t, "HL-1", c.Device.ID)
			assert.Equal(t, tele.DeviceClass_ACTUATOR, c.Class())
			assert.Equal(t, 9996, c.Device.CommandPort)
			assert.Equal(t, ":9996", c.Device.CommandAddr())
			assert.Equal(t, 7*time.Second, c.Session.Timeout())
			assert.Equal(t, "debug", c.Log.Level)
		}, ""},

		{"yaml", "carloc.yaml", func(t testing.TB, c *Config) {
			assert.Equal(t, "CarLoc-3", c.Device.ID)
			assert.Equal(t, tele.DeviceClass_SENSOR, c.Class())
			assert.Equal(t, "carloc", c.Logic.Kind)
			assert.Equal(t, "track.csv", c.Logic.CSVPath)
			assert.Equal(t, 2, c.Logic.Step)
			assert.Equal(t, 2*time.Second, c.Telemetry.Periodicity())
			assert.Equal(t, "224.0.0.2:9999", c.Discovery.MulticastGroup)
			// from included hcl
			assert.Equal(t, "tcp://127.0.0.1:1883", c.Mirror.MqttBroker)
		}, ""},

		{"include-optional-missing", "optional.hcl", func(t testing.TB, c *Config) {
			assert.Equal(t, "AC-2", c.Device.ID)
			assert.Equal(t, "ac", c.Logic.Kind)
		}, ""},

		{"error-syntax", "error-syntax", nil, "key 'hello' expected start of object"},
		{"error-include-loop", "include-loop", nil, "config include loop: from=include-loop include=include-loop"},
		{"error-include-missing", "include-missing", nil, "config required name=nope.hcl"},
		{"error-class", "bad-class.hcl", nil, `device.class="toaster" not valid`},
		{"error-group", "bad-group.hcl", nil, "multicast_group=10.0.0.1:9999 not multicast"},
		{"error-sensor-logic", "sensor.hcl", nil, "logic.kind=empty not valid"},
	}
	fs := NewMockFullReader(map[string]string{
		"empty": "",
		"device.hcl": `
log { level = "debug" }
device {
	id = "HL-1"
	class = "actuator"
	command_port = 9996
}
session { timeout_sec = 7 }
`,
		"carloc.yaml": `
include:
  - name: mirror.hcl
device:
  id: CarLoc-3
  class: sensor
discovery:
  multicast_group: "224.0.0.2:9999"
telemetry:
  periodicity_sec: 2
logic:
  kind: carloc
  csv_path: track.csv
  step: 2
`,
		"mirror.hcl": `mirror { mqtt_broker = "tcp://127.0.0.1:1883" }`,
		"optional.hcl": `
include "nope.hcl" { optional = true }
device {
	id = "AC-2"
	command_port = 9996
}
logic { kind = "ac" }
`,
		"error-syntax":    "hello",
		"include-loop":    `include "include-loop" {}`,
		"include-missing": `include "nope.hcl" {}`,
		"bad-class.hcl": `
device {
	class = "toaster"
}
logic { kind = "carloc" }
`,
		"bad-group.hcl": `
device {
	class = "sensor"
}
logic { kind = "carloc" }
discovery { multicast_group = "10.0.0.1:9999" }
`,
		"sensor.hcl": `device { class = "sensor" }`,
	})

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			cfg, err := ReadConfig(log, fs, c.source)
			if err == nil {
				err = cfg.Finalize(log)
			}
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
			if c.check != nil {
				c.check(t, cfg)
			}
		})
	}
}

func TestGlobalInit(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	fs := NewMockFullReader(map[string]string{
		"test-inline": `
device {
	id = "HL-1"
	command_port = 9996
}
logic { kind = "headlight" }
`,
	})
	ctx, g := NewContext(log, fs)
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))
	assert.Equal(t, g, GetGlobal(ctx))
	assert.Equal(t, tele.Noop{}, g.Mirror)
	assert.Equal(t, "HL-1", g.Config.Device.ID)
	g.Stop()
	assert.True(t, g.Alive.IsFinished())
}
