package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()
	b := Backoff{Min: 100 * time.Millisecond, Max: 400 * time.Millisecond, K: 2}
	assert.Equal(t, time.Duration(0), b.DelayBefore(), "first delay is always 0")

	b.Failure()
	assert.InDelta(t, float64(100*time.Millisecond), float64(b.DelayBefore()), float64(20*time.Millisecond))
	b.Failure()
	assert.InDelta(t, float64(200*time.Millisecond), float64(b.DelayBefore()), float64(20*time.Millisecond))
	b.Failure()
	b.Failure()
	b.Failure()
	assert.InDelta(t, float64(400*time.Millisecond), float64(b.DelayBefore()), float64(20*time.Millisecond), "limited by Max")

	b.Reset()
	assert.InDelta(t, float64(100*time.Millisecond), float64(b.DelayBefore()), float64(20*time.Millisecond))
}
