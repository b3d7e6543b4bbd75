package testutil

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScript(t *testing.T) {
	path := WriteScript(t, t.TempDir(), "hello", `echo "hi $1"`)

	out, err := exec.Command(path, "there").Output()
	require.NoError(t, err)
	assert.Equal(t, "hi there", strings.TrimSpace(string(out)))
}

func TestFreePort(t *testing.T) {
	p1 := FreePort(t)
	p2 := FreePort(t)

	assert.Greater(t, p1, 0)
	assert.Greater(t, p2, 0)
}
