package expr

// Equal reports whether a and b are structurally equal: same variant and
// recursively equal children.
//
// Commutativity is not applied, so a+b and b+a are different trees.
// Constants compare with ==, so NaN is never equal to itself and
// 0 equals -0. Recursive; see Depth.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Value == y.Value
	case Variable:
		_, ok := b.(Variable)
		return ok
	case Sum:
		y, ok := b.(Sum)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Product:
		y, ok := b.(Product)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Power:
		y, ok := b.(Power)
		return ok && Equal(x.Base, y.Base) && Equal(x.Exponent, y.Exponent)
	case Function:
		y, ok := b.(Function)
		return ok && x.Kind == y.Kind && Equal(x.Arg, y.Arg)
	case Vector:
		y, ok := b.(Vector)
		if !ok || len(x.elems) != len(y.elems) {
			return false
		}
		for i := range x.elems {
			if !Equal(x.elems[i], y.elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
