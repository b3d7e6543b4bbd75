package harness

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/wavelang/wavetest/internal/fixture"
)

// responseBufferSize bounds how much of the server's reply is read.
const responseBufferSize = 4096

// ServerCheck executes the one fixture verified by a live network round
// trip. The fixture is expected to start a TCP server on the shared
// port; the harness acts as the client.
//
// There is no readiness signal from the child, so the harness waits a
// fixed boot delay before dialing. The child is torn down on every exit
// path, success or not: SIGTERM first, SIGKILL if it lingers past
// KillGrace.
//
// The returned outcome is PASS_ZERO iff the response contains the
// fixture's marker; any connection failure, deadline, or missing marker
// is FAIL with the client-side error surfaced in the detail. The error
// return is reserved for a child that could not be started at all.
func (r *Runner) ServerCheck(ctx context.Context, fx fixture.Fixture) (Outcome, string, error) {
	cmd := exec.Command(r.Compiler, "run", fx.Path)
	cmd.Dir = r.Root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: r.MaxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: r.MaxOutput}

	if err := cmd.Start(); err != nil {
		return Fail, "", fmt.Errorf("starting %s: %w", r.Compiler, err)
	}
	// Unconditional teardown: the fixture's process must not outlive
	// the check, whatever happens below.
	defer r.shutdown(cmd)

	r.Log.Debug("waiting for server boot", "fixture", fx.Name, "delay", r.BootDelay)
	select {
	case <-time.After(r.BootDelay):
	case <-ctx.Done():
		return Fail, fmt.Sprintf("cancelled: %v", ctx.Err()), nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", r.Port)
	conn, err := net.DialTimeout("tcp", addr, r.ClientTimeout)
	if err != nil {
		return Fail, fmt.Sprintf("server not responding: %v", err), nil
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(r.ClientTimeout)); err != nil {
		return Fail, fmt.Sprintf("setting deadline: %v", err), nil
	}
	if _, err := conn.Write([]byte(fx.Stimulus.Request)); err != nil {
		return Fail, fmt.Sprintf("writing request: %v", err), nil
	}

	buf := make([]byte, responseBufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		return Fail, fmt.Sprintf("reading response: %v", err), nil
	}
	response := string(buf[:n])

	if !strings.Contains(response, fx.Stimulus.Marker) {
		return Fail, "unexpected response:\n" + response, nil
	}
	return PassZero, "", nil
}

// shutdown terminates the server-check child: graceful SIGTERM, then a
// forced kill if it does not exit within the grace period.
func (r *Runner) shutdown(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(r.KillGrace):
		_ = cmd.Process.Kill()
		<-done
	}
}
