package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavelang/wavetest/internal/harness"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func firstRun() []harness.FixtureResult {
	return []harness.FixtureResult{
		{Name: "test1.wave", Outcome: harness.PassZero},
		{Name: "test2.wave", Outcome: harness.Fail, Detail: "SyntaxError: unexpected token"},
		{Name: "test3.wave", Outcome: harness.PassNonzero},
	}
}

func secondRun() []harness.FixtureResult {
	return []harness.FixtureResult{
		{Name: "test1.wave", Outcome: harness.PassZero},
		{Name: "test2.wave", Outcome: harness.PassZero},
		{Name: "test4.wave", Outcome: harness.Timeout},
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	id1, err := s.RecordRun(ctx, "target/release/wavec", t1, firstRun())
	require.NoError(t, err)
	id2, err := s.RecordRun(ctx, "target/release/wavec", t2, secondRun())
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, id1, runs[1].ID)
	assert.Equal(t, t2, runs[0].StartedAt)
	assert.Equal(t, 3, runs[0].Fixtures)
	assert.Equal(t, "target/release/wavec", runs[0].Compiler)
}

func TestRunResults_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordRun(ctx, "wavec", time.Now(), firstRun())
	require.NoError(t, err)

	results, err := s.RunResults(ctx, id)
	require.NoError(t, err)
	require.Equal(t, firstRun(), results)
}

func TestDiffLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.RecordRun(ctx, "wavec", t1, firstRun())
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, "wavec", t1.Add(time.Hour), secondRun())
	require.NoError(t, err)

	older, newer, changes, err := s.DiffLatest(ctx)
	require.NoError(t, err)
	assert.True(t, newer.StartedAt.After(older.StartedAt))

	want := []OutcomeChange{
		{Fixture: "test2.wave", Before: "FAIL", After: "PASS_ZERO"},
		{Fixture: "test4.wave", After: "TIMEOUT"},
		{Fixture: "test3.wave", Before: "PASS_NONZERO"},
	}
	assert.Equal(t, want, changes)
}

func TestDiffLatest_NeedsTwoRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, _, err := s.DiffLatest(ctx)
	require.Error(t, err)

	_, err = s.RecordRun(ctx, "wavec", time.Now(), firstRun())
	require.NoError(t, err)

	_, _, _, err = s.DiffLatest(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two recorded runs")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	require.NoError(t, err)
	id, err := s1.RecordRun(context.Background(), "wavec", time.Now(), firstRun())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	results, err := s2.RunResults(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
