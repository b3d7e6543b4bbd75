// Package config loads and validates the optional wavetest.yaml file.
//
// All knobs default to the values the Wave test suite has always used, so a
// bare checkout runs without any configuration file at all. A present file is
// validated against an embedded CUE schema before it is decoded; unknown keys
// and type mismatches are rejected up front rather than silently ignored.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = "wavetest.yaml"

// Default values for runner configuration.
const (
	DefaultRunTimeout    = 5 * time.Second
	DefaultBootDelay     = 1 * time.Second
	DefaultClientTimeout = 2 * time.Second
	DefaultKillGrace     = 1 * time.Second
	DefaultPause         = 300 * time.Millisecond
	DefaultDatagramDelay = 500 * time.Millisecond
	DefaultPort          = 8080
	DefaultMaxOutput     = 1 << 20 // 1 MiB per stream
)

// Config holds the parsed harness configuration.
// Zero values fall back to defaults via the accessor methods.
type Config struct {
	Compiler    string `yaml:"compiler"`
	TestDir     string `yaml:"test_dir"`
	FixtureGlob string `yaml:"fixture_glob"`
	DirFixture  string `yaml:"dir_fixture"`

	RawRunTimeout    string `yaml:"run_timeout"`    // e.g. "5s"
	RawBootDelay     string `yaml:"boot_delay"`     // server-check boot wait
	RawClientTimeout string `yaml:"client_timeout"` // server-check connect/read deadline
	RawKillGrace     string `yaml:"kill_grace"`     // SIGTERM -> SIGKILL grace
	RawPause         string `yaml:"pause"`          // inter-fixture pause
	RawDatagramDelay string `yaml:"datagram_delay"` // delay before the UDP stimulus

	RawPort      int `yaml:"port"`
	RawMaxOutput int `yaml:"max_output"` // bytes per captured stream

	FailureSignatures []string            `yaml:"failure_signatures"`
	KnownTimeouts     []string            `yaml:"known_timeouts"`
	Stimuli           map[string]Stimulus `yaml:"stimuli"`
}

// Stimulus describes the external input a fixture needs beyond its normal
// invocation. Exactly one of the fields is set.
type Stimulus struct {
	Stdin    string       `yaml:"stdin,omitempty"`
	Datagram string       `yaml:"datagram,omitempty"`
	Server   *ServerCheck `yaml:"server,omitempty"`
}

// ServerCheck configures the one fixture verified by a live round trip:
// the harness connects to the fixture's server, writes Request, and passes
// the fixture only if the response contains Marker.
type ServerCheck struct {
	Request string `yaml:"request"`
	Marker  string `yaml:"marker"`
}

// defaultSignatures are the substrings in captured stderr that force a FAIL
// regardless of exit status. Matching is case-insensitive.
var defaultSignatures = []string{
	"WaveError",
	"WaveErrorKind",
	"SyntaxError",
	"failed to parse",
	"Failed to run",
	"thread 'main' panicked",
	"panicked at",
	"LLVM ERROR",
	"Segmentation fault",
	"stack overflow",
}

// defaultStimuli maps fixture names to the stimuli the suite has always used.
func defaultStimuli() map[string]Stimulus {
	return map[string]Stimulus{
		"test22.wave": {Stdin: "3\n"},
		"test74.wave": {Stdin: "10\n"},
		"test61.wave": {Datagram: "hello from wavetest\n"},
		"test62.wave": {Datagram: "hello from wavetest\n"},
		"test56.wave": {Server: &ServerCheck{
			Request: "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			Marker:  "Welcome to the Wave HTTP Server!",
		}},
	}
}

// Default returns a config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Compiler:          "target/release/wavec",
		TestDir:           "test",
		FixtureGlob:       "test*.wave",
		DirFixture:        "test28/main.wave",
		FailureSignatures: append([]string(nil), defaultSignatures...),
		KnownTimeouts:     []string{},
		Stimuli:           defaultStimuli(),
	}
}

// Load reads the config file at path. An empty path means "use defaults";
// a missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := validateSchema(path, data); err != nil {
		return nil, err
	}

	// Decode over the defaults. Lists replace wholesale; the stimuli map
	// merges key-by-key, which lets a project override one fixture's
	// stimulus without restating the rest.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.checkDurations(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// validateSchema checks the raw YAML against the embedded CUE schema.
// This is what rejects unknown keys and wrongly-typed values.
func validateSchema(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

// checkDurations rejects malformed or non-positive duration strings.
func (c *Config) checkDurations() error {
	fields := map[string]string{
		"run_timeout":    c.RawRunTimeout,
		"boot_delay":     c.RawBootDelay,
		"client_timeout": c.RawClientTimeout,
		"kill_grace":     c.RawKillGrace,
		"pause":          c.RawPause,
		"datagram_delay": c.RawDatagramDelay,
	}
	for name, raw := range fields {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s %q: must be positive", name, raw)
		}
	}
	return nil
}

func duration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// RunTimeout returns the bounded wait applied to a standard-mode run.
func (c *Config) RunTimeout() time.Duration { return duration(c.RawRunTimeout, DefaultRunTimeout) }

// BootDelay returns the fixed wait before the server-check round trip.
func (c *Config) BootDelay() time.Duration { return duration(c.RawBootDelay, DefaultBootDelay) }

// ClientTimeout returns the connect/read deadline for the server check.
func (c *Config) ClientTimeout() time.Duration {
	return duration(c.RawClientTimeout, DefaultClientTimeout)
}

// KillGrace returns how long a terminated child may linger before SIGKILL.
func (c *Config) KillGrace() time.Duration { return duration(c.RawKillGrace, DefaultKillGrace) }

// Pause returns the inter-fixture pause that lets bound ports release.
func (c *Config) Pause() time.Duration { return duration(c.RawPause, DefaultPause) }

// DatagramDelay returns the wait before the fire-and-forget UDP stimulus.
func (c *Config) DatagramDelay() time.Duration {
	return duration(c.RawDatagramDelay, DefaultDatagramDelay)
}

// Port returns the local port shared by the datagram stimulus and the
// server check. Fixtures are serialized precisely because this is shared.
func (c *Config) Port() int {
	if c.RawPort > 0 {
		return c.RawPort
	}
	return DefaultPort
}

// MaxOutputBytes returns the per-stream capture limit.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// IsKnownTimeout reports whether a fixture is allowlisted as an expected
// hang, reclassifying TIMEOUT to SKIP.
func (c *Config) IsKnownTimeout(name string) bool {
	for _, n := range c.KnownTimeouts {
		if n == name {
			return true
		}
	}
	return false
}

// StimulusFor returns the stimulus configured for a fixture, if any.
func (c *Config) StimulusFor(name string) (Stimulus, bool) {
	s, ok := c.Stimuli[name]
	return s, ok
}
