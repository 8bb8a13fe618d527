package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/symb/internal/expr"
)

// ReadExprRecord retrieves a stored expression row by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadExprRecord(ctx context.Context, id string) (ExprRecord, error) {
	var rec ExprRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, canonical, printed
		FROM expressions
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Canonical, &rec.Printed)
	if err != nil {
		return ExprRecord{}, err
	}
	return rec, nil
}

// ReadExpr retrieves and decodes a stored expression.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadExpr(ctx context.Context, id string) (expr.Node, error) {
	rec, err := s.ReadExprRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := expr.Unmarshal([]byte(rec.Canonical))
	if err != nil {
		return nil, fmt.Errorf("decode expression %s: %w", id, err)
	}
	return n, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, op, input_id, output_id, status, message, passes, max_passes, seq, engine_version
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns all runs ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, op, input_id, output_id, status, message, passes, max_passes, seq, engine_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadPasses returns the passes of a run in pass order.
// Returns an empty slice (not nil) if the run recorded none.
func (s *Store) ReadPasses(ctx context.Context, runID string) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, pass, expr_id
		FROM passes
		WHERE run_id = ?
		ORDER BY pass ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []Pass{}
	for rows.Next() {
		var p Pass
		if err := rows.Scan(&p.RunID, &p.Pass, &p.ExprID); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// LastSeq returns the highest run seq, or 0 for an empty log. The engine
// resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var outputID sql.NullString
	if err := row.Scan(
		&run.ID,
		&run.Op,
		&run.InputID,
		&outputID,
		&run.Status,
		&run.Message,
		&run.Passes,
		&run.MaxPasses,
		&run.Seq,
		&run.EngineVersion,
	); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.OutputID = outputID.String
	return run, nil
}
