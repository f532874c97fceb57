package logic

import (
	"math/rand"
	"sync"

	"github.com/juju/errors"
)

type Headlight struct {
	mu    sync.RWMutex
	state string
}

// NewHeadlight starts in random state.
func NewHeadlight(r *rand.Rand) *Headlight {
	h := &Headlight{state: "off"}
	if r.Intn(2) == 1 {
		h.state = "on"
	}
	return h
}

func (h *Headlight) ProduceReading() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return "Headlight|" + h.state
}

// ApplyCommand accepts only "on" and "off".
func (h *Headlight) ApplyCommand(s string) error {
	if s != "on" && s != "off" {
		return errors.Annotatef(ErrInvalidCommand, "headlight command=%q want on|off", s)
	}
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
	return nil
}

func (h *Headlight) State() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}
