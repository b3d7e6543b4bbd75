package harness

import "fmt"

// Outcome classifies one fixture's run. Exactly one outcome is recorded
// per fixture and it is never revised.
type Outcome int

const (
	// PassZero: the process exited 0 with clean stderr.
	PassZero Outcome = iota
	// PassNonzero: the process exited non-zero with clean stderr. A
	// non-zero exit is an acceptable outcome for fixtures designed to
	// fail at runtime, not a harness error.
	PassNonzero
	// Fail: a failure signature appeared on stderr, or the server check
	// did not produce the expected marker.
	Fail
	// Skip: the fixture timed out but is on the known-timeout allowlist.
	Skip
	// Timeout: the fixture exceeded the run timeout unexpectedly.
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case PassZero:
		return "PASS_ZERO"
	case PassNonzero:
		return "PASS_NONZERO"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Timeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome is the inverse of String. Used when loading recorded runs.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "PASS_ZERO":
		return PassZero, nil
	case "PASS_NONZERO":
		return PassNonzero, nil
	case "FAIL":
		return Fail, nil
	case "SKIP":
		return Skip, nil
	case "TIMEOUT":
		return Timeout, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalText lets outcomes appear by name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// FixtureResult pairs a fixture identifier with its classified outcome.
// Detail carries diagnostic text for failures (captured output or the
// server-check client error).
type FixtureResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// ResultSet accumulates one FixtureResult per fixture, in discovery
// order. It is fully populated before the reporter runs.
type ResultSet struct {
	results []FixtureResult
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Add appends a result. Append-only; results are never revised.
func (rs *ResultSet) Add(r FixtureResult) {
	rs.results = append(rs.results, r)
}

// Len returns the number of recorded results.
func (rs *ResultSet) Len() int { return len(rs.results) }

// Results returns the recorded results in discovery order.
func (rs *ResultSet) Results() []FixtureResult { return rs.results }

// Buckets groups results by outcome, preserving discovery order within
// each bucket.
type Buckets struct {
	PassZero    []FixtureResult
	PassNonzero []FixtureResult
	Fail        []FixtureResult
	Skip        []FixtureResult
	Timeout     []FixtureResult
}

// Buckets splits the result set into its five outcome buckets.
func (rs *ResultSet) Buckets() Buckets {
	var b Buckets
	for _, r := range rs.results {
		switch r.Outcome {
		case PassZero:
			b.PassZero = append(b.PassZero, r)
		case PassNonzero:
			b.PassNonzero = append(b.PassNonzero, r)
		case Fail:
			b.Fail = append(b.Fail, r)
		case Skip:
			b.Skip = append(b.Skip, r)
		case Timeout:
			b.Timeout = append(b.Timeout, r)
		}
	}
	return b
}

// Counts holds the per-bucket tallies for the final summary.
type Counts struct {
	PassZero    int `json:"pass_zero"`
	PassNonzero int `json:"pass_nonzero"`
	Fail        int `json:"fail"`
	Skip        int `json:"skip"`
	Timeout     int `json:"timeout"`
}

// Counts returns the bucket sizes.
func (b Buckets) Counts() Counts {
	return Counts{
		PassZero:    len(b.PassZero),
		PassNonzero: len(b.PassNonzero),
		Fail:        len(b.Fail),
		Skip:        len(b.Skip),
		Timeout:     len(b.Timeout),
	}
}

// Clean reports whether the run had no unexpected failures. SKIP is
// expected by definition; FAIL and TIMEOUT are not.
func (c Counts) Clean() bool {
	return c.Fail == 0 && c.Timeout == 0
}
