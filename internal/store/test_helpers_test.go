package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/symb/internal/expr"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustWriteExpr stores n and returns its ID.
func mustWriteExpr(t *testing.T, s *Store, n expr.Node) string {
	t.Helper()
	id, err := s.WriteExpr(context.Background(), n)
	if err != nil {
		t.Fatalf("WriteExpr() failed: %v", err)
	}
	return id
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, inputID, outputID string, seq int64) Run {
	return Run{
		ID:            id,
		Op:            OpSimplify,
		InputID:       inputID,
		OutputID:      outputID,
		Status:        StatusOK,
		Passes:        1,
		MaxPasses:     1000,
		Seq:           seq,
		EngineVersion: "0.1.0",
	}
}
