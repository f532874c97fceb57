package state

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/devsim/helpers"
	"github.com/temoto/devsim/internal/logic"
	"github.com/temoto/devsim/log2"
	"github.com/temoto/devsim/tele"
	tele_config "github.com/temoto/devsim/tele/config"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include" yaml:"include"`

	Log struct {
		Level string `hcl:"level" yaml:"level"`
	} `hcl:"log" yaml:"log"`
	Device    tele_config.Device    `hcl:"device" yaml:"device"`
	Discovery tele_config.Discovery `hcl:"discovery" yaml:"discovery"`
	Telemetry tele_config.Telemetry `hcl:"telemetry" yaml:"telemetry"`
	Session   tele_config.Session   `hcl:"session" yaml:"session"`
	Command   tele_config.Command   `hcl:"command" yaml:"command"`
	Logic     logic.Config          `hcl:"logic" yaml:"logic"`
	Mirror    tele_config.Mirror    `hcl:"mirror" yaml:"mirror"`
	Metrics   struct {
		Listen string `hcl:"listen" yaml:"listen"`
	} `hcl:"metrics" yaml:"metrics"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key" yaml:"name"`
	Optional bool   `hcl:"optional" yaml:"optional"`
}

func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if isYAML(source.Name) {
		err = yaml.Unmarshal(bs, c)
	} else {
		err = hcl.Unmarshal(bs, c)
	}
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Class is valid only after Finalize.
func (c *Config) Class() tele.DeviceClass {
	class, _ := tele.ParseClass(c.Device.Class)
	return class
}

// Finalize fills defaults and validates. Safe to call more than once.
func (c *Config) Finalize(log *log2.Log) error {
	errs := make([]error, 0, 4)
	if c.Device.ID == "" {
		c.Device.ID = uuid.New().String()
		log.Errorf("config: device.id=empty generated=%s", c.Device.ID)
	}
	if c.Device.Class == "" {
		c.Device.Class = "sensor"
		if logic.Actuator(c.Logic.Kind) {
			c.Device.Class = "actuator"
		}
	}
	class, err := tele.ParseClass(c.Device.Class)
	if err != nil {
		errs = append(errs, errors.NotValidf("device.class=%q", c.Device.Class))
	}
	if c.Logic.Kind == "" && class == tele.DeviceClass_ACTUATOR {
		c.Logic.Kind = logic.KindHeadlight
	}
	if c.Logic.Kind == "" {
		errs = append(errs, errors.NotValidf("logic.kind=empty"))
	}
	if class == tele.DeviceClass_ACTUATOR && (c.Device.CommandPort <= 0 || c.Device.CommandPort > 0xffff) {
		errs = append(errs, errors.NotValidf("actuator device.command_port=%d", c.Device.CommandPort))
	}
	if _, err = c.Discovery.Group(); err != nil {
		errs = append(errs, err)
	}
	if _, err = log2.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.NotValidf("log.level=%q", c.Log.Level))
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, errors.Trace(err)
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
