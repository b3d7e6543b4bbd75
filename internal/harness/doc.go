// Package harness executes and classifies Wave conformance fixtures.
//
// The harness drives the compiler under test against each discovered
// fixture as a subprocess, applies a bounded wait, captures exit status
// and output, and classifies the run into one of five outcomes:
//
//   - PASS_ZERO: exit 0 with clean stderr
//   - PASS_NONZERO: non-zero exit with clean stderr (expected for
//     negative-test fixtures)
//   - FAIL: a failure signature on stderr, regardless of exit status
//   - SKIP: timed out, but allowlisted as an expected hang
//   - TIMEOUT: timed out unexpectedly
//
// Classification is an ordered rule chain (see Classifier); a signature
// match deliberately overrides exit-code success, because a compiler bug
// can print a panic and still return 0.
//
// # Execution modes
//
// Standard mode runs `wavec run <path>` to completion or timeout. The
// single server-check fixture instead keeps the child running, waits a
// fixed boot delay, and performs a client-side round trip against the
// server the fixture starts; the child is torn down unconditionally.
//
// # Determinism
//
// Discovery order is a pure lexicographic sort plus one appended
// directory fixture, so repeated runs over an unchanged fixture set and
// compiler visit fixtures in the same order and fill the same buckets.
// The one acknowledged fragility is the fire-and-forget UDP stimulus,
// which can miss a slow-starting child.
package harness
