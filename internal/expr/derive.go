package expr

// Derive returns the derivative of n with respect to x.
//
// The result is not simplified: constants are not folded and subtrees of n
// are reused rather than copied. Callers are expected to run the
// simplifier afterwards. Like Evaluate, Derive recurses per level.
//
// Rules:
//
//	c'          = 0
//	x'          = 1
//	(l + r)'    = l' + r'
//	(l * r)'    = l'*r + l*r'
//	(b ^ c)'    = (c * b^(c-1)) * b'                   constant exponent
//	(c ^ e)'    = (ln(c) * c^e) * e'                   constant base
//	(b ^ e)'    = b^e * (e'*ln(b) + e*ln(b)')          otherwise
//	f(a)'       = f'(a) * a'                           chain rule
//	[e0, e1]'   = [e0', e1']
func Derive(n Node) Node {
	switch v := n.(type) {
	case Constant:
		return Constant{Value: 0}
	case Variable:
		return Constant{Value: 1}
	case Sum:
		return Sum{Left: Derive(v.Left), Right: Derive(v.Right)}
	case Product:
		return Sum{
			Left:  Product{Left: Derive(v.Left), Right: v.Right},
			Right: Product{Left: v.Left, Right: Derive(v.Right)},
		}
	case Power:
		return derivePower(v)
	case Function:
		return Product{Left: functionDerivative(v.Kind, v.Arg), Right: Derive(v.Arg)}
	case Vector:
		out := make([]Node, len(v.elems))
		for i, e := range v.elems {
			out[i] = Derive(e)
		}
		return Vector{elems: out}
	default:
		return Constant{Value: 0}
	}
}

// derivePower keeps two fast paths ahead of the general exp(e*ln(b)) form.
// The simplifier cannot cancel the general form back down, so b^c must not
// go through it.
func derivePower(p Power) Node {
	if c, ok := IsConstant(p.Exponent); ok {
		return Product{
			Left:  Product{Left: Constant{Value: c}, Right: Power{Base: p.Base, Exponent: Constant{Value: c - 1}}},
			Right: Derive(p.Base),
		}
	}

	if _, ok := IsConstant(p.Base); ok {
		return Product{
			Left:  Product{Left: Ln(p.Base), Right: p},
			Right: Derive(p.Exponent),
		}
	}

	lnBase := Ln(p.Base)
	return Product{
		Left: p,
		Right: Sum{
			Left:  Product{Left: Derive(p.Exponent), Right: lnBase},
			Right: Product{Left: p.Exponent, Right: Derive(lnBase)},
		},
	}
}

// functionDerivative returns f'(arg) for the outer function only; the
// caller multiplies by arg'.
func functionDerivative(kind FuncKind, arg Node) Node {
	switch kind {
	case Cosine:
		return Product{Left: Constant{Value: -1}, Right: Sin(arg)}
	case Sine:
		return Cos(arg)
	case NaturalLog:
		return Recip(arg)
	default:
		return Constant{Value: 0}
	}
}
