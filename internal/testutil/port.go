package testutil

import (
	"net"
	"testing"
)

// FreePort asks the kernel for an unused TCP port. The listener is
// closed before returning, so there is a small reuse window; tests that
// bind the port immediately are fine in practice.
func FreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("allocating port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
