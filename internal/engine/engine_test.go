package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
	"github.com/roach88/symb/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, s *store.Store, opts ...Option) *Engine {
	t.Helper()
	ids := NewFixedGenerator("run-1", "run-2", "run-3", "run-4")
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(s, ids, opts...)
}

func TestEngine_Simplify(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	in := expr.Derive(expr.Mul(expr.X(), expr.X()))
	res, err := e.Simplify(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "(2 * x)", expr.Print(res.Output))
	require.Len(t, res.Trace, 3)
	assert.Equal(t, "(x + (1 * x))", expr.Print(res.Trace[0]))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.OpSimplify, run.Op)
	assert.Equal(t, store.StatusOK, run.Status)
	assert.Equal(t, 3, run.Passes)
	assert.Equal(t, simplify.DefaultMaxPasses, run.MaxPasses)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, Version, run.EngineVersion)
	assert.Equal(t, expr.MustID(in), run.InputID)
	assert.Equal(t, expr.MustID(res.Output), run.OutputID)

	passes, err := s.ReadPasses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, passes, 3)
	for i, p := range passes {
		assert.Equal(t, i+1, p.Pass)
		assert.Equal(t, expr.MustID(res.Trace[i]), p.ExprID)
	}

	out, err := s.ReadExpr(ctx, run.OutputID)
	require.NoError(t, err)
	assert.True(t, expr.Equal(res.Output, out))
}

func TestEngine_SimplifyNotConvergedIsRecorded(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s, WithMaxPasses(1))

	res, simplifyErr := e.Simplify(ctx, expr.Derive(expr.Pow(expr.X(), 3)))
	require.Error(t, simplifyErr)
	assert.True(t, simplify.IsNotConverged(simplifyErr))
	require.NotNil(t, res)
	assert.Equal(t, "(1 * (3 * (x ^ 2)))", expr.Print(res.Output))

	run, err := s.ReadRun(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(simplify.ErrCodeNotConverged), run.Status)
	assert.Equal(t, simplifyErr.Error(), run.Message)
	assert.Equal(t, 1, run.Passes)
	assert.Equal(t, 1, run.MaxPasses)
}

func TestEngine_SimplifyDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	in := expr.Add(expr.Vec2(expr.X(), expr.Const(1)), expr.MustVector(expr.X()))
	res, err := e.Simplify(ctx, in)
	require.Error(t, err)
	assert.True(t, simplify.IsDimensionMismatch(err))

	run, err := s.ReadRun(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(simplify.ErrCodeDimensionMismatch), run.Status)
	assert.Equal(t, 0, run.Passes)
	assert.Equal(t, run.InputID, run.OutputID)
}

func TestEngine_Derive(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	res, err := e.Derive(ctx, expr.Sin(expr.X()))
	require.NoError(t, err)
	assert.Equal(t, "(cos(x) * 1)", expr.Print(res.Output))
	assert.Empty(t, res.Trace)

	run, err := s.ReadRun(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.OpDerive, run.Op)
	assert.Equal(t, 0, run.Passes)

	passes, err := s.ReadPasses(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Empty(t, passes)
}

func TestEngine_DeriveRejectsInvalidTree(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	_, err := e.Derive(context.Background(), expr.Add(expr.X(), nil))
	require.Error(t, err)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_Step(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	res, err := e.Step(ctx, expr.Add(expr.X(), expr.X()))
	require.NoError(t, err)
	assert.Equal(t, "(2 * x)", expr.Print(res.Output))

	run, err := s.ReadRun(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.OpSimplifyStep, run.Op)
	assert.Equal(t, 1, run.Passes)
	assert.Equal(t, 1, run.MaxPasses)
}

func TestEngine_StepDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	in := expr.Add(expr.Vec2(expr.X(), expr.X()), expr.MustVector(expr.X()))
	res, err := e.Step(ctx, in)
	require.Error(t, err)
	assert.True(t, simplify.IsDimensionMismatch(err))
	assert.True(t, expr.Equal(in, res.Output))
	assert.Equal(t, string(simplify.ErrCodeDimensionMismatch), res.Run.Status)
}

func TestEngine_RejectsDeepInputBeforeRecording(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s, WithMaxDepth(100))

	var n expr.Node = expr.X()
	for i := 0; i < 500; i++ {
		n = expr.Sin(n)
	}

	res, err := e.Simplify(ctx, n)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, simplify.IsDepthExceeded(err))

	res, err = e.Step(ctx, n)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, simplify.IsDepthExceeded(err))

	res, err = e.Derive(ctx, n)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, simplify.IsDepthExceeded(err))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_RejectsEmptyVector(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	in := expr.Mul(expr.X(), expr.Vector{})

	res, err := e.Simplify(ctx, in)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, expr.ErrEmptyVector)

	res, err = e.Step(ctx, in)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, expr.ErrEmptyVector)
}

func TestEngine_SeqOrdersRuns(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	_, err := e.Derive(ctx, expr.X())
	require.NoError(t, err)
	_, err = e.Simplify(ctx, expr.Add(expr.Const(1), expr.Const(2)))
	require.NoError(t, err)
	_, err = e.Step(ctx, expr.X())
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, int64(i+1), run.Seq)
	}
	assert.Equal(t, []string{store.OpDerive, store.OpSimplify, store.OpSimplifyStep},
		[]string{runs[0].Op, runs[1].Op, runs[2].Op})
}

func TestResume_ContinuesSeq(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first := newTestEngine(t, s)
	_, err := first.Derive(ctx, expr.X())
	require.NoError(t, err)
	_, err = first.Derive(ctx, expr.Const(3))
	require.NoError(t, err)

	second, err := Resume(ctx, s, NewFixedGenerator("later"), WithLogger(quietLogger()))
	require.NoError(t, err)
	res, err := second.Derive(ctx, expr.Cos(expr.X()))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Run.Seq)
}

type stubClock struct{ seq int64 }

func (c *stubClock) Next() int64 {
	c.seq += 10
	return c.seq
}

func TestWithClock(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s, WithClock(&stubClock{}))

	res, err := e.Derive(context.Background(), expr.X())
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Run.Seq)
}
