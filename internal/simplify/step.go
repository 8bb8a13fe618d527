package simplify

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/symb/internal/expr"
)

// StepFunc performs one rewrite pass over a tree.
type StepFunc func(expr.Node) (expr.Node, error)

// Step applies one layer of rewrite rules to n.
//
// Rules are tried at the root in priority order and the first match wins.
// If none matches, the node is rebuilt from its children, each stepped
// independently. Step never mutates n.
//
// A Sum of two vectors with different arity is reported as a
// DIMENSION_MISMATCH *Error wrapping expr.ErrDimensionMismatch. An empty
// vector yields expr.ErrEmptyVector and a nil child an error. In every
// failure case n is returned unchanged.
//
// Step recurses on the tree. Use Simplify, which bounds depth, for input
// of unknown shape.
func Step(n expr.Node) (expr.Node, error) {
	var r rewriter
	out := r.step(n)
	if r.err != nil {
		return n, r.err
	}
	return out, nil
}

// rewriter carries the first error seen during a pass so the rule
// functions can stay in expression position.
type rewriter struct {
	err error
}

func (r *rewriter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// vector builds a vector from elems, or records the error and returns
// orig when elems cannot form one.
func (r *rewriter) vector(orig expr.Node, elems []expr.Node) expr.Node {
	v, err := expr.NewVector(elems...)
	if err != nil {
		r.fail(err)
		return orig
	}
	return v
}

func (r *rewriter) step(n expr.Node) expr.Node {
	switch v := n.(type) {
	case expr.Sum:
		return r.sum(v)
	case expr.Product:
		return r.product(v)
	case expr.Power:
		return r.power(v)
	case expr.Vector:
		elems := v.Elems()
		for i, e := range elems {
			elems[i] = r.step(e)
		}
		return r.vector(n, elems)
	case nil:
		r.fail(errors.New("nil node"))
		return n
	default:
		// Constant, Variable, and Function: functions have no rules and
		// their arguments are left as they are.
		return n
	}
}

func (r *rewriter) sum(s expr.Sum) expr.Node {
	left, right := s.Left, s.Right

	// n + m
	if a, ok := expr.IsConstant(left); ok {
		if b, ok := expr.IsConstant(right); ok {
			return expr.Const(a + b)
		}
	}

	// 0 + r, l + 0
	if expr.IsConstantValue(left, 0) {
		return r.step(right)
	}
	if expr.IsConstantValue(right, 0) {
		return r.step(left)
	}

	// a + a; this also covers a^n + a^n.
	if expr.Equal(left, right) {
		return expr.Scale(2, left)
	}

	// n*a + m*a
	ln, la, lok := scaled(left)
	rn, ra, rok := scaled(right)
	if lok && rok && expr.Equal(la, ra) {
		return expr.Scale(ln+rn, la)
	}

	// n*a + a, a + n*a
	if lok && expr.Equal(la, right) {
		return expr.Scale(ln+1, la)
	}
	if rok && expr.Equal(left, ra) {
		return expr.Scale(rn+1, ra)
	}

	// [a, b] + [c, d]
	lv, lvec := left.(expr.Vector)
	rv, rvec := right.(expr.Vector)
	if lvec && rvec {
		if lv.Len() != rv.Len() {
			r.fail(&Error{
				Code:    ErrCodeDimensionMismatch,
				Message: fmt.Sprintf("sum of %d- and %d-vectors", lv.Len(), rv.Len()),
				Err:     expr.ErrDimensionMismatch,
			})
			return s
		}
		elems := make([]expr.Node, lv.Len())
		for i := range elems {
			elems[i] = r.step(expr.Add(lv.At(i), rv.At(i)))
		}
		return r.vector(s, elems)
	}

	return expr.Add(r.step(left), r.step(right))
}

func (r *rewriter) product(p expr.Product) expr.Node {
	left, right := p.Left, p.Right

	lc, lconst := expr.IsConstant(left)
	rc, rconst := expr.IsConstant(right)

	// n * m
	if lconst && rconst {
		return expr.Const(lc * rc)
	}

	// a * n -> n * a
	if rconst {
		return expr.Mul(right, left)
	}

	if lconst {
		if lc == 0 {
			return expr.Const(0)
		}
		if lc == 1 {
			return r.step(right)
		}
		// n * (m * r)
		if inner, ok := right.(expr.Product); ok {
			if m, ok := expr.IsConstant(inner.Left); ok {
				return expr.Scale(lc*m, inner.Right)
			}
		}
	}

	// a * a
	if expr.Equal(left, right) {
		return expr.Pow(left, 2)
	}

	// (n*a) * (m*b)
	ln, la, lok := scaled(left)
	rn, rb, rok := scaled(right)
	if lok && rok {
		return expr.Scale(ln*rn, expr.Mul(la, rb))
	}

	// (n*a) * a, a * (n*a)
	if lok && expr.Equal(la, right) {
		return expr.Scale(ln, expr.Pow(la, 2))
	}
	if rok && expr.Equal(left, rb) {
		return expr.Scale(rn, expr.Pow(rb, 2))
	}

	lp, lpow := left.(expr.Power)
	rp, rpow := right.(expr.Power)

	// a^n * a^m
	if lpow && rpow && expr.Equal(lp.Base, rp.Base) {
		return expr.PowExpr(lp.Base, expr.Add(lp.Exponent, rp.Exponent))
	}

	// a * a^n, a^n * a
	if rpow && expr.Equal(left, rp.Base) {
		return expr.PowExpr(rp.Base, expr.Add(expr.Const(1), rp.Exponent))
	}
	if lpow && expr.Equal(lp.Base, right) {
		return expr.PowExpr(lp.Base, expr.Add(lp.Exponent, expr.Const(1)))
	}

	// s * [a, b], [a, b] * s
	lv, lvec := left.(expr.Vector)
	rv, rvec := right.(expr.Vector)
	if rvec && !lvec {
		elems := rv.Elems()
		for i, e := range elems {
			elems[i] = expr.Mul(left, e)
		}
		return r.vector(p, elems)
	}
	if lvec && !rvec {
		elems := lv.Elems()
		for i, e := range elems {
			elems[i] = expr.Mul(e, right)
		}
		return r.vector(p, elems)
	}

	return expr.Mul(r.step(left), r.step(right))
}

func (r *rewriter) power(p expr.Power) expr.Node {
	// a^0
	if expr.IsConstantValue(p.Exponent, 0) {
		return expr.Const(1)
	}
	// a^1
	if expr.IsConstantValue(p.Exponent, 1) {
		return r.step(p.Base)
	}

	// (a^n)^m
	if inner, ok := p.Base.(expr.Power); ok {
		return expr.PowExpr(inner.Base, expr.Mul(inner.Exponent, p.Exponent))
	}

	// n^m, kept symbolic when the result is not a finite number
	if b, ok := expr.IsConstant(p.Base); ok {
		if e, ok := expr.IsConstant(p.Exponent); ok {
			if v := math.Pow(b, e); !math.IsNaN(v) && !math.IsInf(v, 0) {
				return expr.Const(v)
			}
		}
	}

	return expr.PowExpr(r.step(p.Base), r.step(p.Exponent))
}

// scaled matches n*a with a constant n on the left.
func scaled(n expr.Node) (float64, expr.Node, bool) {
	p, ok := n.(expr.Product)
	if !ok {
		return 0, nil, false
	}
	c, ok := expr.IsConstant(p.Left)
	if !ok {
		return 0, nil, false
	}
	return c, p.Right, true
}
