package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/store"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Op: OpDerive, Input: "(x * x)", Output: "((1 * x) + (x * 1))", Status: "ok"},
		{Seq: 2, Op: OpSimplify, Input: "((1 * x) + (x * 1))", Output: "(2 * x)", Status: "ok"},
		{Seq: 3, Op: OpEvaluate, Input: "(2 * x)", Status: "ok", Value: "6"},
		{Seq: 4, Op: OpEvaluate, Input: "(2 * x)", Status: "ok", Value: "8"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpSimplify}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpSimplify, Print: "(2 * x)"}))

	err := assertTraceContains(trace, Assertion{Op: OpSimplify, Print: "(3 * x)"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "simplify producing (3 * x)")
	assert.Contains(t, err.Error(), "Full trace:")

	assert.Error(t, assertTraceContains(trace, Assertion{Op: OpSimplifyStep}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpDerive, OpEvaluate}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpDerive, OpSimplify, OpEvaluate, OpEvaluate}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{OpSimplify, OpDerive}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no derive after [simplify]")

	assert.Error(t, assertTraceOrder(trace, Assertion{Ops: []string{OpEvaluate, OpEvaluate, OpEvaluate}}))
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpEvaluate, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpSimplifyStep, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpDerive, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences of derive")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func setupFinalState(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	in, err := st.WriteExpr(ctx, expr.Add(expr.X(), expr.X()))
	require.NoError(t, err)
	out, err := st.WriteExpr(ctx, expr.Scale(2, expr.X()))
	require.NoError(t, err)

	for i, op := range []string{store.OpSimplify, store.OpDerive} {
		run := store.Run{
			ID:            op + "-run",
			Op:            op,
			InputID:       in,
			OutputID:      out,
			Status:        store.StatusOK,
			Passes:        2,
			MaxPasses:     1000,
			Seq:           int64(i + 1),
			EngineVersion: "0.1.0",
		}
		require.NoError(t, st.WriteRun(ctx, run, nil))
	}
	return st, ctx
}

func TestAssertFinalState(t *testing.T) {
	st, ctx := setupFinalState(t)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "match",
			a: Assertion{Table: "runs", Where: map[string]any{"op": "simplify"},
				Expect: map[string]any{"status": "ok", "passes": 2, "seq": 1}},
		},
		{
			name: "expressions table",
			a: Assertion{Table: "expressions", Where: map[string]any{"printed": "(2 * x)"},
				Expect: map[string]any{"printed": "(2 * x)"}},
		},
		{
			name: "value mismatch",
			a: Assertion{Table: "runs", Where: map[string]any{"op": "derive"},
				Expect: map[string]any{"passes": 3}},
			wantErr: `field "passes" = 3`,
		},
		{
			name:    "no row",
			a:       Assertion{Table: "runs", Where: map[string]any{"op": "simplify_step"}, Expect: map[string]any{"status": "ok"}},
			wantErr: "row not found",
		},
		{
			name:    "ambiguous",
			a:       Assertion{Table: "runs", Expect: map[string]any{"status": "ok"}},
			wantErr: "multiple rows matched",
		},
		{
			name:    "unknown column",
			a:       Assertion{Table: "runs", Where: map[string]any{"op": "derive"}, Expect: map[string]any{"colour": "red"}},
			wantErr: `field "colour" not present`,
		},
		{
			name:    "bad table name",
			a:       Assertion{Table: "runs; DROP TABLE runs", Expect: map[string]any{"x": 1}},
			wantErr: "invalid table name",
		},
		{
			name:    "bad column name",
			a:       Assertion{Table: "runs", Where: map[string]any{"op = op OR 1": 1}, Expect: map[string]any{"x": 1}},
			wantErr: "invalid column name",
		},
		{
			name:    "missing table",
			a:       Assertion{Table: "flows", Expect: map[string]any{"x": 1}},
			wantErr: "query error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual("ok", "ok"))
	assert.True(t, stateValuesEqual("ok", []byte("ok")))
	assert.True(t, stateValuesEqual(3, int64(3)))
	assert.True(t, stateValuesEqual(3.0, int64(3)))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual("3", int64(3)))
	assert.False(t, stateValuesEqual(3, "3"))
	assert.False(t, stateValuesEqual(nil, "x"))
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{Trace: sampleTrace()}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: OpEvaluate, Count: 2},
		{Type: AssertTraceContains, Op: OpSimplifyStep},
		{Type: AssertFinalState, Table: "runs", Expect: map[string]any{"x": 1}},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "trace_contains")
	assert.Contains(t, errs[1], "final_state requires database context")
	assert.Contains(t, errs[2], `unknown assertion type "bogus"`)
}
