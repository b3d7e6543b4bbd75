// Package fixture discovers and describes conformance test fixtures.
package fixture

// StimulusKind identifies the external input a fixture needs, if any.
type StimulusKind int

const (
	// StimulusNone is a plain invocation with no extra input.
	StimulusNone StimulusKind = iota
	// StimulusStdin feeds a literal string to the child's stdin at launch.
	StimulusStdin
	// StimulusDatagram sends one UDP datagram after a short delay,
	// detached from the run. Best effort; send errors are discarded.
	StimulusDatagram
	// StimulusServer verifies the fixture with a live TCP round trip
	// instead of waiting for the process to exit.
	StimulusServer
)

func (k StimulusKind) String() string {
	switch k {
	case StimulusStdin:
		return "stdin"
	case StimulusDatagram:
		return "datagram"
	case StimulusServer:
		return "server"
	default:
		return "none"
	}
}

// Stimulus carries the payload for a fixture's stimulus kind.
// Payload is the stdin text or datagram body; Request and Marker apply
// only to StimulusServer.
type Stimulus struct {
	Kind    StimulusKind
	Payload string
	Request string
	Marker  string
}

// Fixture is one test program plus its invocation mode.
// Fixtures are created during discovery and read-only thereafter.
type Fixture struct {
	// Name identifies the fixture in reports, e.g. "test5.wave" or
	// "test28 (dir)".
	Name string
	// Path is the invocation path handed to the compiler, relative to
	// the project root, e.g. "test/test5.wave".
	Path string
	// Stimulus is the external input this fixture needs.
	Stimulus Stimulus
	// KnownTimeout marks an expected hang: TIMEOUT becomes SKIP.
	KnownTimeout bool
}
