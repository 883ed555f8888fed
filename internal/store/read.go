package store

import (
	"context"
	"fmt"

	"github.com/roach88/mica/internal/rewrite"
)

// ListRuns returns all recorded runs, oldest first. Ordering is
// deterministic: created_at, then id COLLATE BINARY as a tiebreaker.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_name, module_fingerprint, pass, created_at
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ModuleName, &r.ModuleFingerprint, &r.Pass, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadApplications returns the applications of one run in application
// order.
//
// Returns an empty slice (not nil) if the run has no applications.
func (s *Store) ReadApplications(ctx context.Context, runID string) ([]rewrite.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, pattern, op_kind
		FROM applications
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	apps := []rewrite.Application{}
	for rows.Next() {
		var a rewrite.Application
		if err := rows.Scan(&a.RunID, &a.Seq, &a.Pattern, &a.OpKind); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, nil
}
