package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wavelang/wavetest/internal/harness"
)

// RunMeta describes one recorded run.
type RunMeta struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Compiler  string    `json:"compiler"`
	Fixtures  int       `json:"fixtures"`
}

// OutcomeChange is one fixture whose outcome differs between two runs.
type OutcomeChange struct {
	Fixture string `json:"fixture"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// RecordRun persists a completed result set and returns the new run ID.
// The whole run is written in one transaction: a run either appears with
// all its results, or not at all.
func (s *Store) RecordRun(ctx context.Context, compiler string, startedAt time.Time, results []harness.FixtureResult) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, compiler, fixtures) VALUES (?, ?, ?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339), compiler, len(results))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_results (run_id, position, fixture, outcome, detail) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare results insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, id, i, r.Name, r.Outcome.String(), r.Detail); err != nil {
			return "", fmt.Errorf("insert result %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListRuns returns recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, compiler, fixtures FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var m RunMeta
		var ts string
		if err := rows.Scan(&m.ID, &ts, &m.Compiler, &m.Fixtures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		m.StartedAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", ts, err)
		}
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// RunResults returns one run's results in discovery order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]harness.FixtureResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fixture, outcome, detail FROM run_results WHERE run_id = ? ORDER BY position`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []harness.FixtureResult
	for rows.Next() {
		var r harness.FixtureResult
		var outcome string
		if err := rows.Scan(&r.Name, &outcome, &r.Detail); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Outcome, err = harness.ParseOutcome(outcome)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DiffLatest compares the two most recent runs and returns the fixtures
// whose outcome changed. Fixtures present in only one run are reported
// with an empty Before or After.
func (s *Store) DiffLatest(ctx context.Context) (older, newer RunMeta, changes []OutcomeChange, err error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return RunMeta{}, RunMeta{}, nil, err
	}
	if len(runs) < 2 {
		return RunMeta{}, RunMeta{}, nil, fmt.Errorf("need at least two recorded runs, have %d", len(runs))
	}
	newer, older = runs[0], runs[1]

	oldResults, err := s.RunResults(ctx, older.ID)
	if err != nil {
		return RunMeta{}, RunMeta{}, nil, err
	}
	newResults, err := s.RunResults(ctx, newer.ID)
	if err != nil {
		return RunMeta{}, RunMeta{}, nil, err
	}

	oldByName := make(map[string]harness.Outcome, len(oldResults))
	for _, r := range oldResults {
		oldByName[r.Name] = r.Outcome
	}

	seen := make(map[string]struct{}, len(newResults))
	for _, r := range newResults {
		seen[r.Name] = struct{}{}
		before, ok := oldByName[r.Name]
		switch {
		case !ok:
			changes = append(changes, OutcomeChange{Fixture: r.Name, After: r.Outcome.String()})
		case before != r.Outcome:
			changes = append(changes, OutcomeChange{Fixture: r.Name, Before: before.String(), After: r.Outcome.String()})
		}
	}
	for _, r := range oldResults {
		if _, ok := seen[r.Name]; !ok {
			changes = append(changes, OutcomeChange{Fixture: r.Name, Before: r.Outcome.String()})
		}
	}

	return older, newer, changes, nil
}
