package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
	"github.com/roach88/symb/internal/store"
)

// ErrRunNotFound is returned by Replay for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// ReplayResult compares a recorded run with a fresh execution of it.
type ReplayResult struct {
	Run    store.Run
	Output expr.Node

	// Match is true when every pass, the status and the output agree.
	Match bool

	// Mismatches describes each disagreement, in pass order.
	Mismatches []string

	// VersionChanged is true when the run was recorded by a different
	// engine version. Mismatches are expected in that case.
	VersionChanged bool
}

// Replay re-executes the run with the given ID from its stored input and
// compares the result with the recording. Nothing is written to the store.
func (e *Engine) Replay(ctx context.Context, runID string) (*ReplayResult, error) {
	run, err := e.store.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("replay %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	input, err := e.store.ReadExpr(ctx, run.InputID)
	if err != nil {
		return nil, fmt.Errorf("replay %s: input: %w", runID, err)
	}
	recorded, err := e.store.ReadPasses(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	var (
		out      expr.Node
		passIDs  []string
		status   = store.StatusOK
		opErr    error
		observer = func(_ int, n expr.Node) error {
			id, err := expr.ID(n)
			if err != nil {
				return err
			}
			passIDs = append(passIDs, id)
			return nil
		}
	)

	switch run.Op {
	case store.OpDerive:
		out = expr.Derive(input)
	case store.OpSimplifyStep:
		out, opErr = simplify.Step(input)
		if opErr == nil {
			if err := observer(1, out); err != nil {
				return nil, fmt.Errorf("replay %s: %w", runID, err)
			}
		} else {
			out = input
		}
	case store.OpSimplify:
		out, opErr = simplify.Simplify(input,
			simplify.WithMaxPasses(run.MaxPasses),
			simplify.WithMaxDepth(e.maxDepth),
			simplify.WithObserver(observer),
			simplify.WithLogger(e.logger),
		)
	default:
		return nil, fmt.Errorf("replay %s: unknown op %q", runID, run.Op)
	}
	if opErr != nil {
		code := simplify.CodeOf(opErr)
		if code == "" {
			return nil, fmt.Errorf("replay %s: %w", runID, opErr)
		}
		status = string(code)
	}

	res := &ReplayResult{
		Run:            run,
		Output:         out,
		VersionChanged: run.EngineVersion != Version,
	}

	if status != run.Status {
		res.Mismatches = append(res.Mismatches,
			fmt.Sprintf("status: recorded %s, replayed %s", run.Status, status))
	}
	for i := 0; i < len(recorded) || i < len(passIDs); i++ {
		switch {
		case i >= len(recorded):
			res.Mismatches = append(res.Mismatches,
				fmt.Sprintf("pass %d: not recorded, replayed %s", i+1, passIDs[i]))
		case i >= len(passIDs):
			res.Mismatches = append(res.Mismatches,
				fmt.Sprintf("pass %d: recorded %s, not replayed", recorded[i].Pass, recorded[i].ExprID))
		case recorded[i].ExprID != passIDs[i]:
			res.Mismatches = append(res.Mismatches,
				fmt.Sprintf("pass %d: recorded %s, replayed %s", recorded[i].Pass, recorded[i].ExprID, passIDs[i]))
		}
	}

	outID, err := expr.ID(out)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}
	if outID != run.OutputID {
		res.Mismatches = append(res.Mismatches,
			fmt.Sprintf("output: recorded %s, replayed %s", run.OutputID, outID))
	}

	res.Match = len(res.Mismatches) == 0
	if !res.Match {
		e.logger.Warn("replay mismatch",
			"run_id", runID,
			"mismatches", len(res.Mismatches),
			"version_changed", res.VersionChanged,
		)
	}
	return res, nil
}
