package expr

import "fmt"

// Builders compose new trees from existing ones. They never simplify and
// keep operand order exactly as given, so Sub(a, b) is always
// Sum(a, Product(-1, b)).

// X returns the variable.
func X() Node { return Variable{} }

// Const returns a constant leaf.
func Const(v float64) Node { return Constant{Value: v} }

// Add returns a + b.
func Add(a, b Node) Node { return Sum{Left: a, Right: b} }

// Sub returns a + (-1 * b).
func Sub(a, b Node) Node {
	return Sum{Left: a, Right: Product{Left: Constant{Value: -1}, Right: b}}
}

// Mul returns a * b.
func Mul(a, b Node) Node { return Product{Left: a, Right: b} }

// Scale returns c * n with the constant on the left.
func Scale(c float64, n Node) Node { return Product{Left: Constant{Value: c}, Right: n} }

// Div returns a * b^-1.
func Div(a, b Node) Node { return Product{Left: a, Right: Recip(b)} }

// Recip returns n^-1.
func Recip(n Node) Node { return Power{Base: n, Exponent: Constant{Value: -1}} }

// Pow returns base ^ c for a constant exponent.
func Pow(base Node, c float64) Node { return Power{Base: base, Exponent: Constant{Value: c}} }

// PowExpr returns base ^ exponent for a symbolic exponent.
func PowExpr(base, exponent Node) Node { return Power{Base: base, Exponent: exponent} }

// Sqrt returns n ^ 0.5.
func Sqrt(n Node) Node { return Pow(n, 0.5) }

// Cos returns cos(n).
func Cos(n Node) Node { return Function{Kind: Cosine, Arg: n} }

// Sin returns sin(n).
func Sin(n Node) Node { return Function{Kind: Sine, Arg: n} }

// Ln returns ln(n).
func Ln(n Node) Node { return Function{Kind: NaturalLog, Arg: n} }

// Vec2 returns the 2-vector [a, b].
func Vec2(a, b Node) Vector { return Vector{elems: []Node{a, b}} }

// Dot returns the sum of componentwise products of a and b, folded from the
// left: ((a0*b0 + a1*b1) + a2*b2) ...
//
// Returns ErrDimensionMismatch if the vectors have different arity.
func Dot(a, b Vector) (Node, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("dot: %d vs %d: %w", a.Len(), b.Len(), ErrDimensionMismatch)
	}
	if a.Len() == 0 {
		return nil, fmt.Errorf("dot: %w", ErrEmptyVector)
	}
	var out Node = Product{Left: a.elems[0], Right: b.elems[0]}
	for i := 1; i < a.Len(); i++ {
		out = Sum{Left: out, Right: Product{Left: a.elems[i], Right: b.elems[i]}}
	}
	return out, nil
}
