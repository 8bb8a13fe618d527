package expr

import "math"

// Evaluate computes the value of n with the variable bound to x.
//
// Evaluation follows IEEE 754 and never fails: the caller is responsible
// for domain validity. A negative base with a fractional exponent yields
// NaN, ln of a non-positive value yields NaN or -Inf, and x^-1 at x=0
// yields +Inf.
//
// Vectors have no scalar value; Evaluate returns 0 for a Vector node.
//
// Evaluate recurses once per level of n. Bound untrusted input with Depth.
func Evaluate(n Node, x float64) float64 {
	switch v := n.(type) {
	case Constant:
		return v.Value
	case Variable:
		return x
	case Sum:
		return Evaluate(v.Left, x) + Evaluate(v.Right, x)
	case Product:
		return Evaluate(v.Left, x) * Evaluate(v.Right, x)
	case Power:
		return math.Pow(Evaluate(v.Base, x), Evaluate(v.Exponent, x))
	case Function:
		arg := Evaluate(v.Arg, x)
		switch v.Kind {
		case Cosine:
			return math.Cos(arg)
		case Sine:
			return math.Sin(arg)
		case NaturalLog:
			return math.Log(arg)
		}
		return math.NaN()
	case Vector:
		return 0
	default:
		return math.NaN()
	}
}
