package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/store"
)

func TestDemoJSON(t *testing.T) {
	out, err := executeCommand(t, NewDemoCommand(jsonOpts()))
	require.NoError(t, err)

	var data DemoResult
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, data.Cases, 6)

	steps := make([]int, len(data.Cases))
	for i, c := range data.Cases {
		steps[i] = len(c.Steps)
	}
	assert.Equal(t, []int{5, 4, 1, 3, 2, 2}, steps)

	quadratic := data.Cases[0]
	assert.Equal(t, "((2 * x) + (-1 * (2 * (x ^ 2))))", quadratic.Expr)
	require.NotNil(t, quadratic.Value)
	assert.Equal(t, Number(-40), *quadratic.Value)
	require.NotNil(t, quadratic.FinalValue)
	assert.InDelta(t, -18, float64(*quadratic.FinalValue), 1e-9)

	cube := data.Cases[2]
	assert.Equal(t, "(x ^ 3)", cube.Expr)
	assert.Equal(t, "((3 * (x ^ 2)) * 1)", cube.Derivative)
	assert.Equal(t, []string{"(1 * (3 * (x ^ 2)))"}, cube.Steps)
	assert.Equal(t, Number(27), *cube.Value)
	assert.InDelta(t, 27, float64(*cube.FinalValue), 1e-9)

	product := data.Cases[4]
	assert.Empty(t, product.Derivative)
	assert.Nil(t, product.Value)
}

func TestDemoText(t *testing.T) {
	out, err := executeCommand(t, NewDemoCommand(textOpts()))
	require.NoError(t, err)

	sections := strings.Split(strings.TrimSuffix(out, "\n"), "<------>\n")
	require.Len(t, sections, 6)
	assert.True(t, strings.HasPrefix(sections[0], "((2 * x) + (-1 * (2 * (x ^ 2))))\n-40\n"))
	assert.Equal(t, "(x ^ 3)\n27\n((3 * (x ^ 2)) * 1)\n(1 * (3 * (x ^ 2)))\n27\n", sections[2])
}

func TestDemoRecordsSteps(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "symb.db")
	_, err := executeCommand(t, NewDemoCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)

	ops := map[string]int{}
	for _, r := range runs {
		ops[r.Op]++
	}
	assert.Equal(t, 5, ops[store.OpDerive])
	assert.Equal(t, 17, ops[store.OpSimplifyStep])
}
