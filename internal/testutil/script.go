// Package testutil provides helpers for harness tests: fake compiler
// scripts and free-port allocation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes an executable shell script and returns its path.
// Tests use these as stand-in compiler binaries.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing script %s: %v", path, err)
	}
	return path
}
