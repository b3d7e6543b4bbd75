package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/wavelang/wavetest/internal/fixture"
)

// Runner spawns the compiler under test against one fixture at a time.
//
// Standard mode launches `<compiler> run <path>` from the project root,
// waits up to Timeout, and captures exit status and both output streams.
// On expiry the child is asked to terminate and, if it lingers past
// KillGrace, is forcibly killed; the run is reported as timed out rather
// than failed. The server-check mode lives in server.go.
type Runner struct {
	Root      string // working directory for the child
	Compiler  string // path to the compiler binary
	Timeout   time.Duration
	KillGrace time.Duration
	MaxOutput int // bytes captured per stream
	Port      int // local port shared by datagram and server stimuli

	DatagramDelay time.Duration
	BootDelay     time.Duration
	ClientTimeout time.Duration

	Log *slog.Logger
}

// Run executes one fixture in standard mode.
//
// The stdin stimulus, if any, is supplied as the child's input stream;
// the datagram stimulus is fired as a detached task (see stimulus.go).
// A non-zero exit is a normal result, not an error. The error return is
// reserved for runs that could not be executed at all.
func (r *Runner) Run(ctx context.Context, fx fixture.Fixture) (ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Compiler, "run", fx.Path)
	cmd.Dir = r.Root

	// Graceful termination on deadline: SIGTERM first, SIGKILL once the
	// grace period elapses. No run may block the harness indefinitely.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.KillGrace

	if fx.Stimulus.Kind == fixture.StimulusStdin {
		cmd.Stdin = strings.NewReader(fx.Stimulus.Payload)
	}
	if fx.Stimulus.Kind == fixture.StimulusDatagram {
		r.sendDatagram(fx.Stimulus.Payload)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: r.MaxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: r.MaxOutput}

	r.Log.Debug("running fixture", "fixture", fx.Name, "path", fx.Path)
	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		r.Log.Debug("fixture timed out", "fixture", fx.Name, "timeout", r.Timeout)
		return ExecutionResult{
			TimedOut: true,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary unrunnable or another exec-level failure.
			return ExecutionResult{}, fmt.Errorf("executing %s: %w", r.Compiler, runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return ExecutionResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards
// the rest. Reporting all bytes as consumed avoids short-write errors.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
