package store

import (
	"context"
	"fmt"

	"github.com/roach88/mica/internal/rewrite"
)

// Run describes one conversion run header.
type Run struct {
	ID                string
	ModuleName        string
	ModuleFingerprint string
	Pass              string
	CreatedAt         string
}

// WriteRun inserts a run header. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - a run replayed into the same database is silently
// ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	var err error
	if run.CreatedAt != "" {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO runs (id, module_name, module_fingerprint, pass, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, run.ID, run.ModuleName, run.ModuleFingerprint, run.Pass, run.CreatedAt)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO runs (id, module_name, module_fingerprint, pass)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, run.ID, run.ModuleName, run.ModuleFingerprint, run.Pass)
	}
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteApplication inserts one pattern application record. Duplicate
// (run_id, seq) pairs are silently ignored for idempotency.
//
// The run referenced by app.RunID must exist (foreign key constraint).
func (s *Store) WriteApplication(ctx context.Context, app rewrite.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (run_id, seq, pattern, op_kind)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, app.RunID, app.Seq, app.Pattern, app.OpKind)
	if err != nil {
		return fmt.Errorf("write application: %w", err)
	}
	return nil
}
