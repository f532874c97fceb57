// Package logic holds reference device behaviors: what a device reports and which commands it accepts.
package logic

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/devsim/helpers"
)

var (
	ErrInvalidCommand = fmt.Errorf("invalid command")
	ErrReadOnly       = fmt.Errorf("device does not accept commands")
)

// Logic must be safe for concurrent ProduceReading and ApplyCommand.
type Logic interface {
	ProduceReading() string
	ApplyCommand(string) error
}

const (
	KindHeadlight = "headlight"
	KindAC        = "ac"
	KindCarLoc    = "carloc"
)

type Config struct {
	Kind    string `hcl:"kind" yaml:"kind"`
	Step    int    `hcl:"step" yaml:"step"`
	CSVPath string `hcl:"csv_path" yaml:"csv_path"`
}

// nil,nil = not found
type FileReader interface {
	ReadAll(path string) ([]byte, error)
}

// Actuator reports whether logic of this kind accepts commands.
func Actuator(kind string) bool {
	switch strings.ToLower(kind) {
	case KindHeadlight, KindAC:
		return true
	}
	return false
}

func New(c Config, fr FileReader) (Logic, error) {
	switch strings.ToLower(c.Kind) {
	case KindHeadlight:
		return NewHeadlight(helpers.RandUnix()), nil
	case KindAC:
		return NewAC(helpers.RandUnix()), nil
	case KindCarLoc:
		if c.CSVPath == "" {
			return nil, errors.NotValidf("logic kind=carloc csv_path empty")
		}
		b, err := fr.ReadAll(c.CSVPath)
		if err == nil && b == nil {
			err = errors.NotFoundf("csv_path=%s", c.CSVPath)
		}
		if err != nil {
			return nil, errors.Annotate(err, "logic carloc")
		}
		return NewCarLoc(b, c.Step)
	}
	return nil, errors.NotSupportedf("logic kind=%q", c.Kind)
}

// lockedRand serializes access to rand.Rand.
type lockedRand struct {
	sync.Mutex
	r *rand.Rand
}

func (lr *lockedRand) Intn(n int) int {
	lr.Lock()
	defer lr.Unlock()
	return lr.r.Intn(n)
}

func (lr *lockedRand) Float64() float64 {
	lr.Lock()
	defer lr.Unlock()
	return lr.r.Float64()
}
