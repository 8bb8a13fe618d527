package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/engine"
	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/store"
)

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, err := executeCommand(t, NewReplayCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	out, err := executeCommand(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := recordRuns(t)
	_, err := executeCommand(t, NewSimplifyCommand(textOpts()), "--expr", mismatchedSum, "--db", dbPath)
	require.Error(t, err)

	out, err := executeCommand(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 3 run(s)")
	assert.Contains(t, out, "simplify, DIMENSION_MISMATCH)")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplaySingleRunJSON(t *testing.T) {
	dbPath := recordRuns(t)
	runID := firstRunID(t, dbPath, store.OpSimplify)

	out, err := executeCommand(t, NewReplayCommand(jsonOpts()), "--db", dbPath, "--run", runID)
	require.NoError(t, err)

	var data ReplayResult
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, data.AllDeterministic)
	require.Len(t, data.Runs, 1)
	assert.Equal(t, runID, data.Runs[0].RunID)
	assert.Equal(t, 3, data.Runs[0].Passes)
}

func TestReplayUnknownRun(t *testing.T) {
	dbPath := recordRuns(t)
	_, err := executeCommand(t, NewReplayCommand(textOpts()), "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestReplayDetectsTampering(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "symb.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	inID, err := st.WriteExpr(ctx, expr.Add(expr.X(), expr.X()))
	require.NoError(t, err)
	wrongID, err := st.WriteExpr(ctx, expr.Scale(3, expr.X()))
	require.NoError(t, err)
	require.NoError(t, st.WriteRun(ctx, store.Run{
		ID:            "tampered",
		Op:            store.OpSimplify,
		InputID:       inID,
		OutputID:      wrongID,
		Status:        store.StatusOK,
		Passes:        1,
		MaxPasses:     1000,
		Seq:           1,
		EngineVersion: engine.Version,
	}, []store.Pass{{RunID: "tampered", Pass: 1, ExprID: wrongID}}))
	require.NoError(t, st.Close())

	out, err := executeCommand(t, NewReplayCommand(jsonOpts()), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var data ReplayResult
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNondeterminism, resp.Error.Code)
	require.Len(t, data.Runs, 1)
	assert.False(t, data.Runs[0].Deterministic)
	assert.False(t, data.Runs[0].VersionChanged)
	assert.NotEmpty(t, data.Runs[0].Mismatches)

	out, err = executeCommand(t, NewReplayCommand(textOpts()), "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Run: tampered")
	assert.Contains(t, out, "pass 1: recorded")
	assert.Contains(t, out, "✗ Determinism verification failed")
}
