// Package expr provides the expression tree for symb.
//
// This package is the foundational layer: every other internal package
// imports expr, and expr imports nothing internal.
//
// Key design constraints:
//   - Node is sealed - only the variants in node.go implement it
//   - Nodes are immutable once constructed; all operations return new trees
//     and may share (never mutate) children of their inputs
//   - There is exactly one free variable, printed as "x"
//   - Constants are float64 and compare by exact equality (no epsilon).
//     This is brittle for values produced by arithmetic, and is kept that
//     way on purpose: the simplifier's fixed-point test relies on it
//   - Evaluation of a Vector is not defined and returns 0
//   - Depth and Validate walk the tree iteratively. Everything else
//     (Evaluate, Derive, Equal, Print, MarshalCanonical, ID) recurses once
//     per level, so callers holding input of unknown shape bound it with
//     Depth first; simplify.CheckDepth does this for the engine
package expr
