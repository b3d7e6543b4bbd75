package harness

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wavelang/wavetest/internal/fixture"
)

// Reporter renders per-fixture progress and the final categorized
// summary. It performs no classification of its own; it is a pure
// consumer of the result set.
//
// Styling adapts to the writer: a terminal gets color, a plain writer
// (pipes, test buffers) gets unstyled text.
type Reporter struct {
	w          io.Writer
	runTimeout time.Duration

	run     lipgloss.Style
	pass    lipgloss.Style
	passNZ  lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	timeout lipgloss.Style
	rule    lipgloss.Style
}

// NewReporter creates a reporter writing to w. runTimeout is shown on
// TIMEOUT lines so the report states the bound that was exceeded.
func NewReporter(w io.Writer, runTimeout time.Duration) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:          w,
		runTimeout: runTimeout,
		run:        r.NewStyle().Foreground(lipgloss.Color("12")),
		pass:       r.NewStyle().Foreground(lipgloss.Color("10")),
		passNZ:     r.NewStyle().Foreground(lipgloss.Color("13")),
		fail:       r.NewStyle().Foreground(lipgloss.Color("9")),
		skip:       r.NewStyle().Foreground(lipgloss.Color("14")),
		timeout:    r.NewStyle().Foreground(lipgloss.Color("11")),
		rule:       r.NewStyle().Bold(true),
	}
}

// Begin announces that a fixture is starting.
func (p *Reporter) Begin(fx fixture.Fixture) {
	if fx.Stimulus.Kind == fixture.StimulusServer {
		fmt.Fprintln(p.w, p.run.Render("RUN "+fx.Name+" (server check)"))
		return
	}
	fmt.Fprintln(p.w, p.run.Render("RUN "+fx.Name))
}

// Report prints the outcome line for one fixture, plus captured
// diagnostics on failure.
func (p *Reporter) Report(fx fixture.Fixture, res FixtureResult, er ExecutionResult) {
	switch res.Outcome {
	case PassZero:
		if fx.Stimulus.Kind == fixture.StimulusServer {
			fmt.Fprintln(p.w, p.pass.Render("→ PASS (server responded)"))
		} else {
			fmt.Fprintln(p.w, p.pass.Render("→ PASS"))
		}
	case PassNonzero:
		fmt.Fprintln(p.w, p.passNZ.Render(fmt.Sprintf("→ PASS (non-zero exit=%d)", er.ExitCode)))
	case Skip:
		fmt.Fprintln(p.w, p.skip.Render("→ SKIP (expected blocking)"))
	case Timeout:
		fmt.Fprintln(p.w, p.timeout.Render(fmt.Sprintf("→ TIMEOUT (%s)", p.runTimeout)))
	case Fail:
		if fx.Stimulus.Kind == fixture.StimulusServer {
			fmt.Fprintln(p.w, p.fail.Render("→ FAIL"))
			if res.Detail != "" {
				fmt.Fprintln(p.w, res.Detail)
			}
		} else {
			fmt.Fprintln(p.w, p.fail.Render(fmt.Sprintf("→ FAIL (exit=%d)", er.ExitCode)))
			p.diagnostics(er)
		}
	}
	fmt.Fprintln(p.w)
}

// diagnostics prints the captured streams of a failed run.
func (p *Reporter) diagnostics(er ExecutionResult) {
	if out := strings.TrimSpace(er.Stdout); out != "" {
		fmt.Fprintln(p.w, p.run.Render("--- STDOUT ---"))
		fmt.Fprintln(p.w, out)
	}
	if errOut := strings.TrimSpace(er.Stderr); errOut != "" {
		fmt.Fprintln(p.w, p.timeout.Render("--- STDERR ---"))
		fmt.Fprintln(p.w, errOut)
	}
}

// Summary renders the final categorized report: per-bucket fixture
// listings, then the numeric tally block.
func (p *Reporter) Summary(rs *ResultSet) {
	b := rs.Buckets()
	c := b.Counts()

	divider := p.rule.Render("=========================")

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, divider)
	fmt.Fprintln(p.w, p.rule.Render("FINAL TEST RESULT"))
	fmt.Fprintln(p.w, divider)
	fmt.Fprintln(p.w)

	p.bucket(p.pass, "PASS (exit=0)", b.PassZero)
	p.bucket(p.passNZ, "PASS (non-zero exit)", b.PassNonzero)
	p.bucket(p.skip, "SKIP", b.Skip)
	p.bucket(p.fail, "FAIL", b.Fail)
	p.bucket(p.timeout, "TIMEOUT", b.Timeout)

	fmt.Fprintln(p.w, divider)
	fmt.Fprintln(p.w, p.pass.Render(fmt.Sprintf("PASS(0): %d", c.PassZero)))
	fmt.Fprintln(p.w, p.passNZ.Render(fmt.Sprintf("PASS(!0): %d", c.PassNonzero)))
	fmt.Fprintln(p.w, p.skip.Render(fmt.Sprintf("SKIP: %d", c.Skip)))
	fmt.Fprintln(p.w, p.fail.Render(fmt.Sprintf("FAIL: %d", c.Fail)))
	fmt.Fprintln(p.w, p.timeout.Render(fmt.Sprintf("TIMEOUT: %d", c.Timeout)))
	fmt.Fprintln(p.w, divider)
}

// bucket prints one outcome bucket: header with size, then the fixture
// identifiers in discovery order.
func (p *Reporter) bucket(style lipgloss.Style, label string, results []FixtureResult) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf("%s (%d)", label, len(results))))
	for _, r := range results {
		fmt.Fprintf(p.w, "  - %s\n", r.Name)
	}
	fmt.Fprintln(p.w)
}
