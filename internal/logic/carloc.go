package logic

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"sync"

	"github.com/juju/errors"
)

type point struct{ x, y float64 }

// CarLoc replays track from CSV (header + x,y rows) forward then backward.
type CarLoc struct {
	mu    sync.Mutex
	track []point
	index int
	step  int
}

func NewCarLoc(b []byte, step int) (*CarLoc, error) {
	if step <= 0 {
		step = 1
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Annotate(err, "carloc csv")
	}
	if len(rows) < 2 {
		return nil, errors.NotValidf("carloc csv without points")
	}
	track := make([]point, 0, 2*(len(rows)-1))
	for i, row := range rows[1:] {
		x, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, errors.Annotatef(err, "carloc csv row=%d", i+2)
		}
		y, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, errors.Annotatef(err, "carloc csv row=%d", i+2)
		}
		track = append(track, point{x, y})
	}
	for i := len(track) - 1; i >= 0; i-- {
		track = append(track, track[i])
	}
	return &CarLoc{track: track, step: step}, nil
}

func (c *CarLoc) ProduceReading() string {
	c.mu.Lock()
	c.index += c.step
	p := c.track[c.index%len(c.track)]
	c.mu.Unlock()
	return formatFloat(p.x) + "|" + formatFloat(p.y)
}

func (c *CarLoc) ApplyCommand(s string) error {
	return errors.Annotatef(ErrReadOnly, "carloc command=%q", s)
}

// shortest repr, always with fraction: 1 -> "1.0"
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
