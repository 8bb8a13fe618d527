package expr

import (
	"strconv"
	"strings"
)

// Print renders n as fully parenthesized infix text.
//
//	Sum      (A + B)
//	Product  (A * B)
//	Power    (A ^ B)
//	Function cos(A), sin(A), ln(A)
//	Vector   [A, B, ...]
//
// Constants use the shortest decimal that round-trips (2, -1, 0.5, 1e+21).
// No precedence-based elision is done. Print recurses per level.
func Print(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Constant:
		b.WriteString(FormatConstant(v.Value))
	case Variable:
		b.WriteString("x")
	case Sum:
		writeBinary(b, v.Left, " + ", v.Right)
	case Product:
		writeBinary(b, v.Left, " * ", v.Right)
	case Power:
		writeBinary(b, v.Base, " ^ ", v.Exponent)
	case Function:
		b.WriteString(string(v.Kind))
		b.WriteByte('(')
		writeNode(b, v.Arg)
		b.WriteByte(')')
	case Vector:
		b.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, e)
		}
		b.WriteByte(']')
	case nil:
		b.WriteString("<nil>")
	}
}

func writeBinary(b *strings.Builder, left Node, op string, right Node) {
	b.WriteByte('(')
	writeNode(b, left)
	b.WriteString(op)
	writeNode(b, right)
	b.WriteByte(')')
}

// FormatConstant formats a constant value the way Print and the canonical
// encoding do.
func FormatConstant(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
