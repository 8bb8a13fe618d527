package expr

import (
	"errors"
	"fmt"
)

// Node is a sealed interface representing one algebraic construct.
// Only Constant, Variable, Sum, Product, Power, Function and Vector
// implement it.
type Node interface {
	fmt.Stringer
	exprNode() // Sealed - only these types implement it
}

// Constant is a numeric leaf.
type Constant struct {
	Value float64
}

func (Constant) exprNode() {}

// Variable is the single free variable x.
type Variable struct{}

func (Variable) exprNode() {}

// Sum is Left + Right.
type Sum struct {
	Left  Node
	Right Node
}

func (Sum) exprNode() {}

// Product is Left * Right.
type Product struct {
	Left  Node
	Right Node
}

func (Product) exprNode() {}

// Power is Base ^ Exponent. The exponent is a full node, so x^x is
// representable.
type Power struct {
	Base     Node
	Exponent Node
}

func (Power) exprNode() {}

// FuncKind names a unary function.
type FuncKind string

const (
	// Cosine is cos(arg).
	Cosine FuncKind = "cos"

	// Sine is sin(arg).
	Sine FuncKind = "sin"

	// NaturalLog is ln(arg).
	NaturalLog FuncKind = "ln"
)

// Valid reports whether k is one of the known function kinds.
func (k FuncKind) Valid() bool {
	switch k {
	case Cosine, Sine, NaturalLog:
		return true
	}
	return false
}

// Function applies a unary function of the given kind to Arg.
type Function struct {
	Kind FuncKind
	Arg  Node
}

func (Function) exprNode() {}

// Vector is an ordered, non-empty sequence of elements.
// The element slice is unexported so a Vector cannot be modified after
// construction; use Len, At and Elems to read it.
type Vector struct {
	elems []Node
}

func (Vector) exprNode() {}

// Len returns the arity of the vector.
func (v Vector) Len() int { return len(v.elems) }

// At returns the i-th element.
func (v Vector) At(i int) Node { return v.elems[i] }

// Elems returns a copy of the elements. The caller may modify it.
func (v Vector) Elems() []Node {
	out := make([]Node, len(v.elems))
	copy(out, v.elems)
	return out
}

// Sentinel errors for ill-formed vector input.
var (
	// ErrEmptyVector is returned when a vector is built with no elements.
	ErrEmptyVector = errors.New("vector must have at least one element")

	// ErrDimensionMismatch is returned when a binary vector operation is
	// given vectors of different arity.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// NewVector creates a vector from elems. The slice is copied.
// Returns ErrEmptyVector if elems is empty, or an error if any element is
// nil.
func NewVector(elems ...Node) (Vector, error) {
	if len(elems) == 0 {
		return Vector{}, ErrEmptyVector
	}
	out := make([]Node, len(elems))
	for i, e := range elems {
		if e == nil {
			return Vector{}, fmt.Errorf("vector element %d is nil", i)
		}
		out[i] = e
	}
	return Vector{elems: out}, nil
}

// MustVector is like NewVector but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustVector(elems ...Node) Vector {
	v, err := NewVector(elems...)
	if err != nil {
		panic(err)
	}
	return v
}

// String implementations delegate to Print so every variant renders the
// same way whether printed directly or as a child.

func (n Constant) String() string { return Print(n) }
func (n Variable) String() string { return Print(n) }
func (n Sum) String() string      { return Print(n) }
func (n Product) String() string  { return Print(n) }
func (n Power) String() string    { return Print(n) }
func (n Function) String() string { return Print(n) }
func (n Vector) String() string   { return Print(n) }

// IsConstant reports whether n is a Constant, returning its value.
func IsConstant(n Node) (float64, bool) {
	c, ok := n.(Constant)
	return c.Value, ok
}

// IsConstantValue reports whether n is a Constant with exactly value v.
func IsConstantValue(n Node, v float64) bool {
	c, ok := n.(Constant)
	return ok && c.Value == v
}
