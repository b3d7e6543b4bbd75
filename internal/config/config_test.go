package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "target/release/wavec", cfg.Compiler)
	assert.Equal(t, "test", cfg.TestDir)
	assert.Equal(t, "test*.wave", cfg.FixtureGlob)
	assert.Equal(t, "test28/main.wave", cfg.DirFixture)

	assert.Equal(t, 5*time.Second, cfg.RunTimeout())
	assert.Equal(t, 1*time.Second, cfg.BootDelay())
	assert.Equal(t, 2*time.Second, cfg.ClientTimeout())
	assert.Equal(t, 1*time.Second, cfg.KillGrace())
	assert.Equal(t, 300*time.Millisecond, cfg.Pause())
	assert.Equal(t, 500*time.Millisecond, cfg.DatagramDelay())
	assert.Equal(t, 8080, cfg.Port())
	assert.Equal(t, 1<<20, cfg.MaxOutputBytes())

	assert.Contains(t, cfg.FailureSignatures, "thread 'main' panicked")
	assert.Empty(t, cfg.KnownTimeouts)
}

func TestDefault_Stimuli(t *testing.T) {
	cfg := Default()

	s, ok := cfg.StimulusFor("test22.wave")
	require.True(t, ok)
	assert.Equal(t, "3\n", s.Stdin)

	s, ok = cfg.StimulusFor("test61.wave")
	require.True(t, ok)
	assert.NotEmpty(t, s.Datagram)

	s, ok = cfg.StimulusFor("test56.wave")
	require.True(t, ok)
	require.NotNil(t, s.Server)
	assert.Equal(t, "Welcome to the Wave HTTP Server!", s.Server.Marker)

	_, ok = cfg.StimulusFor("test1.wave")
	assert.False(t, ok)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
compiler: build/wavec
run_timeout: "2s"
port: 9000
known_timeouts:
  - test9.wave
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "build/wavec", cfg.Compiler)
	assert.Equal(t, 2*time.Second, cfg.RunTimeout())
	assert.Equal(t, 9000, cfg.Port())
	assert.True(t, cfg.IsKnownTimeout("test9.wave"))

	// Untouched fields keep their defaults.
	assert.Equal(t, "test", cfg.TestDir)
	assert.Equal(t, 1*time.Second, cfg.BootDelay())
}

func TestLoad_StimuliMergeOverDefaults(t *testing.T) {
	path := writeConfig(t, `
stimuli:
  test22.wave:
    stdin: "42\n"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s, ok := cfg.StimulusFor("test22.wave")
	require.True(t, ok)
	assert.Equal(t, "42\n", s.Stdin)

	// Other default stimuli survive a partial override.
	s, ok = cfg.StimulusFor("test56.wave")
	require.True(t, ok)
	require.NotNil(t, s.Server)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "bogus_key: 1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_WrongTypeRejected(t *testing.T) {
	path := writeConfig(t, "port: \"eighty-eighty\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_MalformedDurationRejected(t *testing.T) {
	// Passes the schema's shape check but not time.ParseDuration.
	path := writeConfig(t, "run_timeout: \"5sbogus\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_timeout")
}

func TestIsKnownTimeout(t *testing.T) {
	cfg := Default()
	cfg.KnownTimeouts = []string{"test22.wave"}

	assert.True(t, cfg.IsKnownTimeout("test22.wave"))
	assert.False(t, cfg.IsKnownTimeout("test23.wave"))
}
