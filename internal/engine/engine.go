package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
	"github.com/roach88/symb/internal/store"
)

// Version is recorded on every run.
const Version = "0.1.0"

// Engine runs operations and records them in a store.
type Engine struct {
	store     *store.Store
	clock     SeqSource
	runIDs    RunIDGenerator
	maxPasses int
	maxDepth  int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses sets the pass quota for Simplify runs.
//
// Default: simplify.DefaultMaxPasses.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		e.maxPasses = n
	}
}

// WithMaxDepth sets the depth bound for Simplify runs.
//
// Default: simplify.DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithClock replaces the engine's clock. Tests and the scenario harness
// pass a testutil.DeterministicClock.
func WithClock(c SeqSource) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine writing to s. The clock starts at 0; use Resume
// to continue an existing log.
func New(s *store.Store, runIDs RunIDGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		clock:     NewClock(),
		runIDs:    runIDs,
		maxPasses: simplify.DefaultMaxPasses,
		maxDepth:  simplify.DefaultMaxDepth,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume creates an Engine whose clock continues after the highest seq
// already in s.
func Resume(ctx context.Context, s *store.Store, runIDs RunIDGenerator, opts ...Option) (*Engine, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	opts = append([]Option{WithClock(NewClockAt(last))}, opts...)
	return New(s, runIDs, opts...), nil
}

// Result is the outcome of one recorded run.
type Result struct {
	Run    store.Run
	Output expr.Node

	// Trace holds the tree produced by each pass, in order. Empty for
	// derive runs.
	Trace []expr.Node
}

// Derive records the derivative of n.
func (e *Engine) Derive(ctx context.Context, n expr.Node) (*Result, error) {
	if err := simplify.CheckDepth(n, e.maxDepth); err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	if err := expr.Validate(n); err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	inputID, err := e.store.WriteExpr(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}

	out := expr.Derive(n)
	outputID, err := e.store.WriteExpr(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}

	run := e.newRun(store.OpDerive, inputID)
	run.OutputID = outputID
	if err := e.record(ctx, run, nil); err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	return &Result{Run: run, Output: out}, nil
}

// Step records a single simplify-step pass over n.
//
// A rewrite failure (a mismatched vector sum) is recorded with its error
// code and returned; the Result is still valid in that case and its
// Output is n unchanged. Input that is too deep or ill formed is rejected
// before anything is recorded.
func (e *Engine) Step(ctx context.Context, n expr.Node) (*Result, error) {
	if err := e.checkInput(n); err != nil {
		return nil, fmt.Errorf("simplify step: %w", err)
	}
	inputID, err := e.store.WriteExpr(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("simplify step: %w", err)
	}

	run := e.newRun(store.OpSimplifyStep, inputID)
	run.MaxPasses = 1

	out, stepErr := simplify.Step(n)
	var passes []store.Pass
	var trace []expr.Node
	if stepErr == nil {
		outputID, err := e.store.WriteExpr(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("simplify step: %w", err)
		}
		run.OutputID = outputID
		run.Passes = 1
		passes = []store.Pass{{RunID: run.ID, Pass: 1, ExprID: outputID}}
		trace = []expr.Node{out}
	} else {
		out = n
		run.OutputID = inputID
		run.Status = string(simplify.CodeOf(stepErr))
		run.Message = stepErr.Error()
	}

	if err := e.record(ctx, run, passes); err != nil {
		return nil, fmt.Errorf("simplify step: %w", err)
	}
	return &Result{Run: run, Output: out, Trace: trace}, stepErr
}

// Simplify records a full simplification of n.
//
// Simplification failures (NOT_CONVERGED, CYCLE_DETECTED,
// DIMENSION_MISMATCH, DEPTH_EXCEEDED) are recorded and returned together
// with a valid Result whose Output is the last tree reached. Any other
// error, including input deeper than the depth bound, means nothing was
// recorded and the Result is nil.
func (e *Engine) Simplify(ctx context.Context, n expr.Node) (*Result, error) {
	if err := e.checkInput(n); err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	inputID, err := e.store.WriteExpr(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}

	run := e.newRun(store.OpSimplify, inputID)
	run.MaxPasses = e.maxPasses

	var passes []store.Pass
	var trace []expr.Node
	observer := func(pass int, out expr.Node) error {
		id, err := e.store.WriteExpr(ctx, out)
		if err != nil {
			return err
		}
		passes = append(passes, store.Pass{RunID: run.ID, Pass: pass, ExprID: id})
		trace = append(trace, out)
		return nil
	}

	out, simplifyErr := simplify.Simplify(n,
		simplify.WithMaxPasses(e.maxPasses),
		simplify.WithMaxDepth(e.maxDepth),
		simplify.WithObserver(observer),
		simplify.WithLogger(e.logger),
	)
	if simplifyErr != nil && simplify.CodeOf(simplifyErr) == "" {
		return nil, fmt.Errorf("simplify: %w", simplifyErr)
	}

	outputID, err := e.store.WriteExpr(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	run.OutputID = outputID
	run.Passes = len(passes)
	if simplifyErr != nil {
		run.Status = string(simplify.CodeOf(simplifyErr))
		run.Message = simplifyErr.Error()
	}

	if err := e.record(ctx, run, passes); err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	return &Result{Run: run, Output: out, Trace: trace}, simplifyErr
}

// checkInput rejects trees that cannot be stored or rewritten. Vector
// arity mismatches pass through; the rewriter records them.
func (e *Engine) checkInput(n expr.Node) error {
	if err := simplify.CheckDepth(n, e.maxDepth); err != nil {
		return err
	}
	if err := expr.Validate(n); err != nil && !errors.Is(err, expr.ErrDimensionMismatch) {
		return err
	}
	return nil
}

func (e *Engine) newRun(op, inputID string) store.Run {
	return store.Run{
		ID:            e.runIDs.Generate(),
		Op:            op,
		InputID:       inputID,
		Status:        store.StatusOK,
		Seq:           e.clock.Next(),
		EngineVersion: Version,
	}
}

func (e *Engine) record(ctx context.Context, run store.Run, passes []store.Pass) error {
	if err := e.store.WriteRun(ctx, run, passes); err != nil {
		return err
	}
	e.logger.Info("run recorded",
		"run_id", run.ID,
		"op", run.Op,
		"status", run.Status,
		"passes", run.Passes,
		"seq", run.Seq,
	)
	return nil
}
