package expr

import "fmt"

// Children returns the direct children of n in left-to-right order.
// The returned slice is a copy; the caller may modify it.
func Children(n Node) []Node {
	switch v := n.(type) {
	case Sum:
		return []Node{v.Left, v.Right}
	case Product:
		return []Node{v.Left, v.Right}
	case Power:
		return []Node{v.Base, v.Exponent}
	case Function:
		return []Node{v.Arg}
	case Vector:
		return v.Elems()
	default:
		return nil
	}
}

// Walk visits n and its descendants in pre-order. If fn returns false the
// children of that node are skipped.
//
// Walk uses an explicit work stack, so arbitrarily deep trees do not
// overflow the goroutine stack.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		kids := Children(cur)
		// Push in reverse so the leftmost child is visited first.
		for i := len(kids) - 1; i >= 0; i-- {
			if kids[i] != nil {
				stack = append(stack, kids[i])
			}
		}
	}
}

// Size returns the number of nodes in the tree. Shared subtrees are
// counted once per reference.
func Size(n Node) int {
	count := 0
	Walk(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// Depth returns the height of the tree; a leaf has depth 1 and nil has
// depth 0.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	type frame struct {
		node  Node
		depth int
	}
	max := 0
	stack := []frame{{node: n, depth: 1}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth > max {
			max = cur.depth
		}
		for _, c := range Children(cur.node) {
			if c != nil {
				stack = append(stack, frame{node: c, depth: cur.depth + 1})
			}
		}
	}
	return max
}

// Validate checks that n is well formed: no nil children, known function
// kinds, non-empty vectors, and no Sum of two vectors with different arity.
// The returned error names the offending node's path from the root.
func Validate(n Node) error {
	if n == nil {
		return fmt.Errorf("root: nil node")
	}
	type frame struct {
		node Node
		path string
	}
	stack := []frame{{node: n, path: "root"}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var kids []frame
		switch v := cur.node.(type) {
		case Constant, Variable:
		case Sum:
			kids = []frame{{v.Left, cur.path + ".left"}, {v.Right, cur.path + ".right"}}
			lv, lok := v.Left.(Vector)
			rv, rok := v.Right.(Vector)
			if lok && rok && lv.Len() != rv.Len() {
				return fmt.Errorf("%s: sum of %d- and %d-vectors: %w", cur.path, lv.Len(), rv.Len(), ErrDimensionMismatch)
			}
		case Product:
			kids = []frame{{v.Left, cur.path + ".left"}, {v.Right, cur.path + ".right"}}
		case Power:
			kids = []frame{{v.Base, cur.path + ".base"}, {v.Exponent, cur.path + ".exponent"}}
		case Function:
			if !v.Kind.Valid() {
				return fmt.Errorf("%s: unknown function %q", cur.path, v.Kind)
			}
			kids = []frame{{v.Arg, cur.path + ".arg"}}
		case Vector:
			if v.Len() == 0 {
				return fmt.Errorf("%s: %w", cur.path, ErrEmptyVector)
			}
			for i, e := range v.elems {
				kids = append(kids, frame{e, fmt.Sprintf("%s.elems[%d]", cur.path, i)})
			}
		default:
			return fmt.Errorf("%s: unknown node type %T", cur.path, cur.node)
		}

		for _, k := range kids {
			if k.node == nil {
				return fmt.Errorf("%s: nil node", k.path)
			}
			stack = append(stack, k)
		}
	}
	return nil
}
