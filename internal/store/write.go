package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/symb/internal/expr"
)

// WriteExpr stores n and returns its content ID.
// Uses ON CONFLICT(id) DO NOTHING, so writing the same tree again is a
// no-op that returns the same ID.
func (s *Store) WriteExpr(ctx context.Context, n expr.Node) (string, error) {
	canonical, err := expr.MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("write expr: %w", err)
	}
	id, err := expr.ID(n)
	if err != nil {
		return "", fmt.Errorf("write expr: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO expressions (id, canonical, printed)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, string(canonical), expr.Print(n))
	if err != nil {
		return "", fmt.Errorf("write expr: %w", err)
	}

	return id, nil
}

// WriteRun inserts a run and its passes in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency: rewriting a run with an
// existing ID leaves the stored rows untouched.
//
// Every expression the run and its passes reference must already be
// stored (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run, passes []Pass) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var outputID sql.NullString
	if run.OutputID != "" {
		outputID = sql.NullString{String: run.OutputID, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, op, input_id, output_id, status, message, passes, max_passes, seq, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Op,
		run.InputID,
		outputID,
		run.Status,
		run.Message,
		run.Passes,
		run.MaxPasses,
		run.Seq,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if rows == 0 {
		// Already recorded.
		return nil
	}

	for _, p := range passes {
		if p.RunID != run.ID {
			return fmt.Errorf("write run: pass %d belongs to run %q, not %q", p.Pass, p.RunID, run.ID)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO passes (run_id, pass, expr_id)
			VALUES (?, ?, ?)
		`, p.RunID, p.Pass, p.ExprID); err != nil {
			return fmt.Errorf("write run: pass %d: %w", p.Pass, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
