package simplify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/expr"
)

func TestStepRules(t *testing.T) {
	x := expr.X()
	c := expr.Const

	tests := []struct {
		name string
		in   expr.Node
		want string
	}{
		// Sum
		{"constant sum", expr.Add(c(2), c(3)), "5"},
		{"zero left", expr.Add(c(0), expr.Scale(1, x)), "x"},
		{"zero right", expr.Add(x, c(0)), "x"},
		{"doubling", expr.Add(x, x), "(2 * x)"},
		{"like terms", expr.Add(expr.Scale(2, x), expr.Scale(3, x)), "(5 * x)"},
		{"scaled plus bare", expr.Add(expr.Scale(2, x), x), "(3 * x)"},
		{"bare plus scaled", expr.Add(x, expr.Scale(2, x)), "(3 * x)"},
		{"equal powers", expr.Add(expr.Pow(x, 2), expr.Pow(x, 2)), "(2 * (x ^ 2))"},
		{"vector sum", expr.Add(expr.Vec2(x, c(1)), expr.Vec2(x, c(2))), "[(2 * x), 3]"},

		// Product
		{"scalar times vector", expr.Mul(x, expr.Vec2(c(1), x)), "[(x * 1), (x * x)]"},
		{"vector times scalar", expr.Mul(expr.Vec2(c(1), x), x), "[(1 * x), (x * x)]"},
		{"constant moves left of vector", expr.Mul(expr.Vec2(c(1), x), c(2)), "(2 * [1, x])"},
		{"zero times vector", expr.Scale(0, expr.Vec2(x, c(1))), "0"},
		{"constant product", expr.Mul(c(2), c(4)), "8"},
		{"constant moves left", expr.Mul(x, c(3)), "(3 * x)"},
		{"zero absorbs", expr.Mul(c(0), expr.Cos(x)), "0"},
		{"one is neutral", expr.Mul(c(1), expr.Add(x, c(0))), "x"},
		{"constant fusion", expr.Scale(2, expr.Scale(3, x)), "(6 * x)"},
		{"square", expr.Mul(x, x), "(x ^ 2)"},
		{"scaled factors", expr.Mul(expr.Scale(2, x), expr.Scale(4, x)), "(8 * (x * x))"},
		{"absorb repeated left", expr.Mul(expr.Scale(3, x), x), "(3 * (x ^ 2))"},
		{"absorb repeated right", expr.Mul(x, expr.Scale(3, x)), "(3 * (x ^ 2))"},
		{"combine exponents", expr.Mul(expr.Pow(x, 2), expr.Pow(x, 3)), "(x ^ (2 + 3))"},
		{"factor times power", expr.Mul(x, expr.Pow(x, 2)), "(x ^ (1 + 2))"},
		{"power times factor", expr.Mul(expr.Pow(x, 2), x), "(x ^ (2 + 1))"},

		// Power
		{"zero exponent", expr.Pow(expr.Cos(x), 0), "1"},
		{"unit exponent", expr.Pow(expr.Add(x, c(0)), 1), "x"},
		{"nested power", expr.Pow(expr.Pow(x, 2), 3), "(x ^ (2 * 3))"},
		{"constant power", expr.Pow(c(2), 3), "8"},
		{"non-finite power stays", expr.Pow(c(-1), 0.5), "(-1 ^ 0.5)"},
		{"symbolic exponent", expr.PowExpr(x, expr.Add(c(1), c(1))), "(x ^ 2)"},

		// Functions are left alone, arguments included.
		{"function identity", expr.Cos(expr.Add(c(1), c(2))), "cos((1 + 2))"},

		// No root rule: one layer deeper.
		{"recurse", expr.Add(expr.Scale(1, x), expr.Cos(x)), "(x + cos(x))"},
		{"one layer only", expr.Add(expr.Scale(1, x), expr.Pow(x, 1)), "(x + x)"},
		{"leaf", x, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Step(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Print(got))
		})
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	in := expr.Add(expr.Mul(expr.Scale(2, expr.X()), expr.Scale(4, expr.X())), expr.Vec2(expr.X(), expr.Const(0)))
	before := expr.Print(in)

	_, err := Step(in)
	require.NoError(t, err)

	assert.Equal(t, before, expr.Print(in))
}

func TestStepEmptyVector(t *testing.T) {
	tests := []struct {
		name string
		in   expr.Node
	}{
		{"bare", expr.Vector{}},
		{"scalar times empty", expr.Mul(expr.X(), expr.Vector{})},
		{"empty times scalar", expr.Mul(expr.Vector{}, expr.X())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got expr.Node
			var err error
			require.NotPanics(t, func() {
				got, err = Step(tt.in)
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, expr.ErrEmptyVector)
			assert.Equal(t, expr.Print(tt.in), expr.Print(got))
		})
	}
}

func TestStepDimensionMismatch(t *testing.T) {
	bad := expr.Add(expr.Vec2(expr.X(), expr.Const(1)), expr.MustVector(expr.X()))

	tests := []struct {
		name string
		in   expr.Node
	}{
		{"at root", bad},
		{"nested", expr.Scale(2, expr.Add(expr.X(), bad))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Step(tt.in)
			require.Error(t, err)
			assert.True(t, IsDimensionMismatch(err))
			assert.True(t, errors.Is(err, expr.ErrDimensionMismatch))
			assert.True(t, expr.Equal(tt.in, got), "input is returned unchanged")
		})
	}
}
