package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wavelang/wavetest/internal/config"
)

// Discover enumerates the fixtures under root's test directory.
//
// Flat files matching the configured glob are returned first, sorted
// lexicographically so discovery order is reproducible across runs. The
// directory-form fixture is appended last iff its entry point exists.
// Discovery is read-only; a missing test directory is an error, not a skip.
func Discover(root string, cfg *config.Config) ([]Fixture, error) {
	testDir := filepath.Join(root, cfg.TestDir)

	entries, err := os.ReadDir(testDir)
	if err != nil {
		return nil, fmt.Errorf("reading test directory %s: %w", testDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(cfg.FixtureGlob, e.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid fixture glob %q: %w", cfg.FixtureGlob, err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	fixtures := make([]Fixture, 0, len(names)+1)
	for _, name := range names {
		fixtures = append(fixtures, build(name, filepath.Join(cfg.TestDir, name), cfg))
	}

	// The composite fixture lives in a sub-directory with a fixed entry
	// point; it only participates when that entry point is present.
	if cfg.DirFixture != "" {
		entry := filepath.Join(testDir, filepath.FromSlash(cfg.DirFixture))
		if _, err := os.Stat(entry); err == nil {
			name := dirFixtureName(cfg.DirFixture)
			path := filepath.Join(cfg.TestDir, filepath.FromSlash(cfg.DirFixture))
			fixtures = append(fixtures, build(name, path, cfg))
		}
	}

	return fixtures, nil
}

// build tags a discovered fixture with its stimulus and timeout allowance.
func build(name, path string, cfg *config.Config) Fixture {
	fx := Fixture{
		Name:         name,
		Path:         filepath.ToSlash(path),
		KnownTimeout: cfg.IsKnownTimeout(name),
	}

	s, ok := cfg.StimulusFor(name)
	if !ok {
		return fx
	}
	switch {
	case s.Server != nil:
		fx.Stimulus = Stimulus{
			Kind:    StimulusServer,
			Request: s.Server.Request,
			Marker:  s.Server.Marker,
		}
	case s.Stdin != "":
		fx.Stimulus = Stimulus{Kind: StimulusStdin, Payload: s.Stdin}
	case s.Datagram != "":
		fx.Stimulus = Stimulus{Kind: StimulusDatagram, Payload: s.Datagram}
	}
	return fx
}

// dirFixtureName derives the reported identifier for the directory-form
// fixture: "test28/main.wave" becomes "test28 (dir)".
func dirFixtureName(entry string) string {
	dir := filepath.Dir(filepath.FromSlash(entry))
	if dir == "." {
		dir = entry
	}
	return filepath.Base(dir) + " (dir)"
}
