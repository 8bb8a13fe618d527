package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/symb/internal/compiler"
	"github.com/roach88/symb/internal/engine"
	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
	"github.com/roach88/symb/internal/store"
	"github.com/roach88/symb/internal/testutil"
)

// Harness executes the steps of one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory run log with a deterministic
// clock and run IDs named after the scenario. Failed expectations and
// assertions make the result fail; the returned error is reserved for
// scenarios that cannot run at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	start, err := startingTree(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	engineOpts := []engine.Option{
		engine.WithClock(clock),
		engine.WithLogger(cfg.logger),
	}
	if scenario.MaxPasses > 0 {
		engineOpts = append(engineOpts, engine.WithMaxPasses(scenario.MaxPasses))
	}

	h := &Harness{
		store:  st,
		engine: engine.New(st, testutil.NewSequentialRunIDs(scenario.Name), engineOpts...),
		clock:  clock,
		logger: cfg.logger,
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.executeSteps(ctx, start, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func startingTree(s *Scenario) (expr.Node, error) {
	if s.Expr != nil {
		n, err := expr.Decode(s.Expr)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: expr: %w", s.Name, err)
		}
		return n, nil
	}

	lib, errs := compiler.LoadLibrary(s.Library, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("scenario %s: library: %w", s.Name, errs[0])
	}
	entry, ok := lib.Lookup(s.Entry)
	if !ok {
		return nil, fmt.Errorf("scenario %s: entry %q not found in library", s.Name, s.Entry)
	}
	if verrs := compiler.Validate([]compiler.Entry{*entry}); len(verrs) > 0 {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, verrs[0])
	}
	return entry.Tree, nil
}

func (h *Harness) executeSteps(ctx context.Context, cur expr.Node, steps []Step, result *Result) error {
	for i, step := range steps {
		ev := TraceEvent{Op: step.Op, Input: expr.Print(cur), Status: store.StatusOK}

		var (
			res     *engine.Result
			stepErr error
		)
		switch step.Op {
		case OpDerive:
			res, stepErr = h.engine.Derive(ctx, cur)
		case OpSimplify:
			res, stepErr = h.engine.Simplify(ctx, cur)
		case OpSimplifyStep:
			res, stepErr = h.engine.Step(ctx, cur)
		case OpEvaluate:
			v := expr.Evaluate(cur, *step.At)
			ev.Seq = h.clock.Next()
			ev.At = step.At
			ev.Value = expr.FormatConstant(v)
			result.AddTrace(ev)
			h.checkValue(i, step.Expect, v, result)
			continue
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}

		if res == nil {
			// Nothing was recorded: the engine itself failed.
			return fmt.Errorf("step %d (%s): %w", i, step.Op, stepErr)
		}

		ev.Seq = res.Run.Seq
		ev.RunID = res.Run.ID
		ev.Status = res.Run.Status
		ev.Output = expr.Print(res.Output)
		for _, n := range res.Trace {
			ev.Passes = append(ev.Passes, expr.Print(n))
		}
		result.AddTrace(ev)

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"run_id", res.Run.ID,
			"status", res.Run.Status,
		)

		h.checkOutcome(i, step, res, stepErr, result)
		cur = res.Output
	}
	return nil
}

func (h *Harness) checkOutcome(i int, step Step, res *engine.Result, stepErr error, result *Result) {
	exp := step.Expect
	code := string(simplify.CodeOf(stepErr))

	wantErr := ""
	if exp != nil {
		wantErr = exp.Error
	}
	switch {
	case stepErr != nil && wantErr == "":
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op, stepErr))
		return
	case wantErr != "" && code != wantErr:
		got := "no error"
		if stepErr != nil {
			got = code
		}
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %s", i, step.Op, wantErr, got))
		return
	}
	if exp == nil {
		return
	}

	if exp.Print != "" {
		if got := expr.Print(res.Output); got != exp.Print {
			result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s", i, step.Op, exp.Print, got))
		}
	}
	if exp.Passes != nil && res.Run.Passes != *exp.Passes {
		result.AddError(fmt.Sprintf("step %d (%s): expected %d passes, got %d", i, step.Op, *exp.Passes, res.Run.Passes))
	}
}

func (h *Harness) checkValue(i int, exp *ExpectClause, got float64, result *Result) {
	if exp == nil || exp.Value == nil {
		return
	}
	want := *exp.Value
	tol := exp.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	if valueMatches(want, got, tol) {
		return
	}
	result.AddError(fmt.Sprintf("step %d (evaluate): expected %s, got %s (tolerance %g)",
		i, expr.FormatConstant(want), expr.FormatConstant(got), tol))
}

func valueMatches(want, got, tol float64) bool {
	switch {
	case math.IsNaN(want) || math.IsNaN(got):
		return math.IsNaN(want) && math.IsNaN(got)
	case math.IsInf(want, 0) || math.IsInf(got, 0):
		return want == got
	default:
		return math.Abs(want-got) <= tol
	}
}

// ErrScenarioFailed is returned by RunFile when a scenario runs but does
// not pass.
var ErrScenarioFailed = errors.New("scenario failed")

// RunFile loads and runs the scenario at path.
func RunFile(path string, opts ...Option) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario, opts...)
	if err != nil {
		return scenario, nil, err
	}
	if !result.Pass {
		return scenario, result, fmt.Errorf("%s: %w", scenario.Name, ErrScenarioFailed)
	}
	return scenario, result, nil
}
