package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavelang/wavetest/internal/config"
	"github.com/wavelang/wavetest/internal/testutil"
)

// compilerScript routes each fixture path to a distinct behavior so one
// run exercises every outcome bucket.
const compilerScript = `case "$2" in
test/test1.wave) exit 0 ;;
test/test2.wave) echo "thread 'main' panicked at src/main.rs:1" >&2; exit 0 ;;
test/test3.wave) exit 2 ;;
test/test4.wave) sleep 10 ;;
test/test5.wave) sleep 10 ;;
test/test28/main.wave) echo ok; exit 0 ;;
esac`

// setupProject lays out a project root with fixtures and a fake
// compiler, returning the root and a ready config.
func setupProject(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "test", "test28"), 0o755))
	for _, name := range []string{"test1.wave", "test2.wave", "test3.wave", "test4.wave", "test5.wave"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "test", name), []byte("main {}\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "test", "test28", "main.wave"), []byte("main {}\n"), 0o644))

	testutil.WriteScript(t, root, "wavec", compilerScript)

	cfg := config.Default()
	cfg.Compiler = "wavec"
	cfg.RawRunTimeout = "500ms"
	cfg.RawKillGrace = "200ms"
	cfg.RawPause = "1ms"
	cfg.KnownTimeouts = []string{"test5.wave"}
	cfg.Stimuli = map[string]config.Stimulus{}
	return root, cfg
}

func TestRun_AllBuckets(t *testing.T) {
	root, cfg := setupProject(t)
	h := New(cfg, Options{Root: root})

	require.NoError(t, h.Preflight())

	rs, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, rs.Len())

	want := []FixtureResult{
		{Name: "test1.wave", Outcome: PassZero},
		{Name: "test2.wave", Outcome: Fail},
		{Name: "test3.wave", Outcome: PassNonzero},
		{Name: "test4.wave", Outcome: Timeout},
		{Name: "test5.wave", Outcome: Skip},
		{Name: "test28 (dir)", Outcome: PassZero},
	}
	for i, w := range want {
		got := rs.Results()[i]
		assert.Equal(t, w.Name, got.Name, "position %d", i)
		assert.Equal(t, w.Outcome, got.Outcome, "fixture %s", w.Name)
	}

	// The failing fixture carries its stderr as the detail.
	assert.Contains(t, rs.Results()[1].Detail, "panicked")

	counts := rs.Buckets().Counts()
	assert.Equal(t, 2, counts.PassZero)
	assert.Equal(t, 1, counts.PassNonzero)
	assert.Equal(t, 1, counts.Fail)
	assert.Equal(t, 1, counts.Skip)
	assert.Equal(t, 1, counts.Timeout)
	assert.False(t, counts.Clean())
}

func TestRun_ProgressOutput(t *testing.T) {
	root, cfg := setupProject(t)

	var out bytes.Buffer
	h := New(cfg, Options{Root: root, Out: &out})

	_, err := h.Run(context.Background())
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "RUN test1.wave")
	assert.Contains(t, s, "RUN test28 (dir)")
	assert.Contains(t, s, "PASS")
	assert.Contains(t, s, "TIMEOUT")
	assert.Contains(t, s, "SKIP (expected blocking)")
}

func TestRun_MissingTestDir(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	testutil.WriteScript(t, root, "wavec", "exit 0")
	cfg.Compiler = "wavec"

	h := New(cfg, Options{Root: root})
	_, err := h.Run(context.Background())
	require.Error(t, err)
}

func TestPreflight_MissingCompiler(t *testing.T) {
	cfg := config.Default()
	h := New(cfg, Options{Root: t.TempDir()})

	err := h.Preflight()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler not found")
}

func TestRunOne_ExecErrorRecordedAsFail(t *testing.T) {
	root, cfg := setupProject(t)
	cfg.Compiler = "no-such-compiler"

	h := New(cfg, Options{Root: root})
	rs, err := h.Run(context.Background())
	require.NoError(t, err)

	for _, res := range rs.Results() {
		assert.Equal(t, Fail, res.Outcome)
		assert.NotEmpty(t, res.Detail)
	}
}
