package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symb/internal/expr"
)

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValidLibrary(t *testing.T) {
	entries := []Entry{
		{Name: "cube", Tree: expr.Pow(expr.X(), 3), At: []float64{0, 3}},
		{Name: "m_2", Tree: expr.Cos(expr.Scale(2, expr.X()))},
	}
	assert.Empty(t, Validate(entries))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  []string
	}{
		{"bad name", Entry{Name: "my-expr", Tree: expr.X()}, []string{ErrInvalidName}},
		{"mismatched vector sum", Entry{Name: "v", Tree: expr.Add(expr.Vec2(expr.X(), expr.X()), expr.MustVector(expr.X()))}, []string{ErrInvalidTree}},
		{"nil child", Entry{Name: "n", Tree: expr.Add(expr.X(), nil)}, []string{ErrInvalidTree}},
		{"infinite sample", Entry{Name: "s", Tree: expr.X(), At: []float64{math.Inf(1)}}, []string{ErrBadSamplePoint}},
		{"duplicate sample", Entry{Name: "d", Tree: expr.X(), At: []float64{1, 2, 1}}, []string{ErrDuplicateSample}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate([]Entry{tt.entry})))
		})
	}
}

func TestValidateDepth(t *testing.T) {
	var n expr.Node = expr.X()
	for i := 0; i < 10001; i++ {
		n = expr.Cos(n)
	}
	errs := Validate([]Entry{{Name: "deep", Tree: n}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrTreeTooDeep, errs[0].Code)
}

func TestValidateDuplicateNames(t *testing.T) {
	errs := Validate([]Entry{
		{Name: "a", Tree: expr.X()},
		{Name: "a", Tree: expr.Const(1)},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateEntries, errs[0].Code)
	assert.Equal(t, "[E115] a: duplicate entry name", errs[0].Error())
}
