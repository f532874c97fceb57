package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	t.Parallel()
	var got []string
	err := ReadLines(strings.NewReader("on\n\n  off \r\n3"), func(line string) { got = append(got, line) })
	require.NoError(t, err)
	assert.Equal(t, []string{"on", "off", "3"}, got)
}
