package harness

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/wavelang/wavetest/internal/fixture"
)

func sampleResults() *ResultSet {
	rs := NewResultSet()
	rs.Add(FixtureResult{Name: "test1.wave", Outcome: PassZero})
	rs.Add(FixtureResult{Name: "test2.wave", Outcome: Fail, Detail: "SyntaxError: unexpected token"})
	rs.Add(FixtureResult{Name: "test3.wave", Outcome: PassNonzero})
	rs.Add(FixtureResult{Name: "test4.wave", Outcome: Timeout})
	rs.Add(FixtureResult{Name: "test5.wave", Outcome: Skip})
	rs.Add(FixtureResult{Name: "test28 (dir)", Outcome: PassZero})
	return rs
}

func TestSummary_Golden(t *testing.T) {
	var buf bytes.Buffer
	p := NewReporter(&buf, 5*time.Second)
	p.Summary(sampleResults())

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "summary", buf.Bytes())
}

func TestReport_FailDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	p := NewReporter(&buf, 5*time.Second)

	fx := fixture.Fixture{Name: "test9.wave", Path: "test/test9.wave"}
	er := ExecutionResult{
		ExitCode: 0,
		Stdout:   "partial output\n",
		Stderr:   "thread 'main' panicked at src/main.rs:3\n",
	}
	p.Report(fx, FixtureResult{Name: fx.Name, Outcome: Fail}, er)

	s := buf.String()
	assert.Contains(t, s, "FAIL (exit=0)")
	assert.Contains(t, s, "--- STDOUT ---")
	assert.Contains(t, s, "partial output")
	assert.Contains(t, s, "--- STDERR ---")
	assert.Contains(t, s, "panicked")
}

func TestReport_TimeoutShowsBound(t *testing.T) {
	var buf bytes.Buffer
	p := NewReporter(&buf, 5*time.Second)

	fx := fixture.Fixture{Name: "test4.wave", Path: "test/test4.wave"}
	p.Report(fx, FixtureResult{Name: fx.Name, Outcome: Timeout}, ExecutionResult{TimedOut: true})

	assert.Contains(t, buf.String(), "TIMEOUT (5s)")
}

func TestBegin_ServerCheckAnnotated(t *testing.T) {
	var buf bytes.Buffer
	p := NewReporter(&buf, 5*time.Second)

	p.Begin(fixture.Fixture{
		Name:     "test56.wave",
		Stimulus: fixture.Stimulus{Kind: fixture.StimulusServer},
	})

	assert.Equal(t, "RUN test56.wave (server check)\n", buf.String())
}
