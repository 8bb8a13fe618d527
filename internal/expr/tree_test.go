package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthAndSize(t *testing.T) {
	assert.Equal(t, 0, Depth(nil))
	assert.Equal(t, 1, Depth(X()))
	assert.Equal(t, 1, Size(X()))

	n := Add(X(), Mul(Const(2), Pow(X(), 3)))
	assert.Equal(t, 4, Depth(n))
	assert.Equal(t, 7, Size(n))
}

func TestDepthDeepTree(t *testing.T) {
	// Deep enough that a naive recursive walk would be expensive;
	// Depth must handle it with its explicit stack.
	const levels = 200000
	var n Node = X()
	for i := 0; i < levels; i++ {
		n = Add(n, Const(1))
	}
	assert.Equal(t, levels+1, Depth(n))
}

func TestWalkPreOrder(t *testing.T) {
	var seen []string
	Walk(Add(X(), Cos(Const(2))), func(n Node) bool {
		seen = append(seen, Print(n))
		return true
	})
	assert.Equal(t, []string{"(x + cos(2))", "x", "cos(2)", "2"}, seen)
}

func TestWalkSkipChildren(t *testing.T) {
	count := 0
	Walk(Add(Mul(X(), X()), X()), func(n Node) bool {
		count++
		_, isProduct := n.(Product)
		return !isProduct
	})
	assert.Equal(t, 3, count)
}

func TestChildrenIsCopy(t *testing.T) {
	v := Vec2(X(), Const(1))
	kids := Children(v)
	kids[0] = Const(5)
	assert.True(t, Equal(X(), v.At(0)))
	assert.Nil(t, Children(X()))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Add(Vec2(X(), Const(1)), Vec2(Const(2), X()))))
	require.NoError(t, Validate(Derive(Cos(PowExpr(X(), X())))))

	err := Validate(Add(X(), Add(Vec2(X(), Const(1)), MustVector(X()))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "root.right")

	err = Validate(Mul(X(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root.right: nil node")

	err = Validate(Function{Kind: "tan", Arg: X()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")

	err = Validate(Cos(Vector{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyVector))

	require.Error(t, Validate(nil))
}
