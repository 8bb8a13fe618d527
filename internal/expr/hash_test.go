package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDStable(t *testing.T) {
	a := Add(Cos(X()), Pow(X(), 2))
	b := Add(Cos(X()), Pow(X(), 2))

	idA, err := ID(a)
	require.NoError(t, err)
	idB, err := ID(b)
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	assert.Len(t, idA, 64)
}

func TestIDDistinguishesStructure(t *testing.T) {
	ids := map[string]string{}
	for name, n := range map[string]Node{
		"x+1":   Add(X(), Const(1)),
		"1+x":   Add(Const(1), X()),
		"x*1":   Mul(X(), Const(1)),
		"cos x": Cos(X()),
		"sin x": Sin(X()),
		"[x,1]": Vec2(X(), Const(1)),
	} {
		id := MustID(n)
		if other, dup := ids[id]; dup {
			t.Fatalf("%s and %s share ID %s", name, other, id)
		}
		ids[id] = name
	}
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"type":"var"}`)
	assert.NotEqual(t, hashWithDomain("symb/expr/v1", data), hashWithDomain("symb/expr/v2", data))
}

func TestMustIDPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { MustID(nil) })
}
