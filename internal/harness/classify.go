package harness

import "strings"

// ExecutionResult captures one completed (or timed-out) standard-mode run.
// It is produced by the Runner, handed to the Classifier, and discarded.
type ExecutionResult struct {
	ExitCode int
	TimedOut bool
	Stdout   string
	Stderr   string
}

// Classifier maps execution results to outcomes using an ordered rule
// chain. The chain is evaluated top to bottom and the first match wins,
// which keeps the override relationship explicit: a timeout beats
// everything, a failure signature beats exit-code success.
type Classifier struct {
	signatures []string // lowercased
	known      map[string]struct{}
	rules      []rule
}

// rule is one priority-ordered predicate in the chain.
type rule struct {
	name    string
	outcome Outcome
	matches func(name string, res ExecutionResult) bool
}

// NewClassifier builds a classifier from the failure-signature set and
// the known-timeout allowlist. Both are read-only after construction.
func NewClassifier(signatures, knownTimeouts []string) *Classifier {
	c := &Classifier{
		known: make(map[string]struct{}, len(knownTimeouts)),
	}
	for _, s := range signatures {
		c.signatures = append(c.signatures, strings.ToLower(s))
	}
	for _, n := range knownTimeouts {
		c.known[n] = struct{}{}
	}

	c.rules = []rule{
		{
			name:    "expected-timeout",
			outcome: Skip,
			matches: func(name string, res ExecutionResult) bool {
				_, allowed := c.known[name]
				return res.TimedOut && allowed
			},
		},
		{
			name:    "timeout",
			outcome: Timeout,
			matches: func(_ string, res ExecutionResult) bool {
				return res.TimedOut
			},
		},
		{
			// Exit-code success does not suppress a crash or parse
			// error reported on stderr.
			name:    "failure-signature",
			outcome: Fail,
			matches: func(_ string, res ExecutionResult) bool {
				return c.hasSignature(res.Stderr)
			},
		},
		{
			name:    "exit-zero",
			outcome: PassZero,
			matches: func(_ string, res ExecutionResult) bool {
				return res.ExitCode == 0
			},
		},
		{
			name:    "exit-nonzero",
			outcome: PassNonzero,
			matches: func(string, ExecutionResult) bool { return true },
		},
	}
	return c
}

// Classify returns the outcome for a completed standard-mode run.
// The final rule always matches, so every run gets exactly one outcome.
func (c *Classifier) Classify(name string, res ExecutionResult) Outcome {
	for _, r := range c.rules {
		if r.matches(name, res) {
			return r.outcome
		}
	}
	return Fail // unreachable: the chain ends with a catch-all
}

// hasSignature reports whether trimmed stderr contains any failure
// signature, case-insensitively.
func (c *Classifier) hasSignature(stderr string) bool {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, sig := range c.signatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
