package logic

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/juju/errors"
)

const (
	acBaseTemp      = 30
	acStepReduction = 5
)

// AC has cooling level 1..3, reading carries temperature with noise in [-1,1].
type AC struct {
	mu    sync.RWMutex
	state int
	rand  lockedRand
}

func NewAC(r *rand.Rand) *AC {
	ac := &AC{rand: lockedRand{r: r}}
	ac.state = 1 + ac.rand.Intn(3)
	return ac
}

func (ac *AC) ProduceReading() string {
	state := ac.State()
	temp := float64(acBaseTemp-(state-1)*acStepReduction) + (ac.rand.Float64()*2 - 1)
	return fmt.Sprintf("AC|%d|%.1f", state, temp)
}

func (ac *AC) ApplyCommand(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.Annotatef(ErrInvalidCommand, "ac command=%q not integer", s)
	}
	if n < 1 || n > 3 {
		return errors.Annotatef(ErrInvalidCommand, "ac command=%d want 1..3", n)
	}
	ac.mu.Lock()
	ac.state = n
	ac.mu.Unlock()
	return nil
}

func (ac *AC) State() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.state
}
