package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wavelang/wavetest/internal/config"
	"github.com/wavelang/wavetest/internal/fixture"
)

// Harness is the sequential conformance driver.
//
// Fixtures never run concurrently with each other: the only cross-fixture
// resource is the fixed local port shared by the datagram stimulus and
// the server check, so runs are serialized with a pause between them to
// let bound ports release. Within one run, the datagram stimulus races
// the main flow as a detached task.
type Harness struct {
	cfg        *config.Config
	root       string
	runner     *Runner
	classifier *Classifier
	reporter   *Reporter
	log        *slog.Logger
	pause      time.Duration
}

// Options configures a Harness. Zero values are usable: progress goes
// nowhere and logs are discarded, which is what tests want.
type Options struct {
	Root   string    // project root; compiler and fixture paths resolve against it
	Out    io.Writer // per-fixture progress and the summary
	Logger *slog.Logger
}

// New builds a harness from configuration.
func New(cfg *config.Config, opts Options) *Harness {
	root := opts.Root
	if root == "" {
		root = "."
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	compiler := cfg.Compiler
	if !filepath.IsAbs(compiler) {
		compiler = filepath.Join(root, compiler)
	}

	return &Harness{
		cfg:  cfg,
		root: root,
		runner: &Runner{
			Root:          root,
			Compiler:      compiler,
			Timeout:       cfg.RunTimeout(),
			KillGrace:     cfg.KillGrace(),
			MaxOutput:     cfg.MaxOutputBytes(),
			Port:          cfg.Port(),
			DatagramDelay: cfg.DatagramDelay(),
			BootDelay:     cfg.BootDelay(),
			ClientTimeout: cfg.ClientTimeout(),
			Log:           logger,
		},
		classifier: NewClassifier(cfg.FailureSignatures, cfg.KnownTimeouts),
		reporter:   NewReporter(out, cfg.RunTimeout()),
		log:        logger,
		pause:      cfg.Pause(),
	}
}

// Reporter returns the harness's reporter, for rendering the summary
// after a run.
func (h *Harness) Reporter() *Reporter { return h.reporter }

// Preflight verifies the compiler binary exists. This is the only check
// allowed to abort before any fixture runs.
func (h *Harness) Preflight() error {
	if _, err := os.Stat(h.runner.Compiler); err != nil {
		return fmt.Errorf("compiler not found at %s (build it first): %w", h.runner.Compiler, err)
	}
	return nil
}

// Run discovers fixtures and executes them in order, returning the fully
// populated result set. No single fixture's failure stops the run; only
// discovery errors are fatal.
func (h *Harness) Run(ctx context.Context) (*ResultSet, error) {
	fixtures, err := fixture.Discover(h.root, h.cfg)
	if err != nil {
		return nil, err
	}
	h.log.Debug("discovered fixtures", "count", len(fixtures))

	rs := NewResultSet()
	for i, fx := range fixtures {
		rs.Add(h.runOne(ctx, fx))

		// Let transient resources (the shared port in particular)
		// release before the next fixture starts.
		if i < len(fixtures)-1 {
			time.Sleep(h.pause)
		}
	}
	return rs, nil
}

// runOne executes and classifies a single fixture. Every path records
// exactly one outcome.
func (h *Harness) runOne(ctx context.Context, fx fixture.Fixture) FixtureResult {
	h.reporter.Begin(fx)

	// The server-check fixture is dispatched by identifier before any
	// standard-mode invocation is attempted; it yields PASS or FAIL
	// directly rather than going through the classifier.
	if fx.Stimulus.Kind == fixture.StimulusServer {
		outcome, detail, err := h.runner.ServerCheck(ctx, fx)
		if err != nil {
			outcome, detail = Fail, err.Error()
		}
		res := FixtureResult{Name: fx.Name, Outcome: outcome, Detail: detail}
		h.reporter.Report(fx, res, ExecutionResult{})
		return res
	}

	er, err := h.runner.Run(ctx, fx)
	if err != nil {
		// The run could not be executed at all. Recorded as FAIL,
		// never fatal to the overall run.
		h.log.Debug("fixture execution error", "fixture", fx.Name, "err", err)
		res := FixtureResult{Name: fx.Name, Outcome: Fail, Detail: err.Error()}
		h.reporter.Report(fx, res, er)
		return res
	}

	res := FixtureResult{Name: fx.Name, Outcome: h.classifier.Classify(fx.Name, er)}
	if res.Outcome == Fail {
		res.Detail = strings.TrimSpace(er.Stderr)
	}
	h.reporter.Report(fx, res, er)
	return res
}
