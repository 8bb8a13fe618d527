// Package simplify implements the algebraic rewriter for expression trees.
//
// There are two layers:
//
// Step applies one layer of rewrite rules. Rules are tried at the root in
// priority order and the first match wins; only when no root rule fires
// does Step recurse, rebuilding the node from its independently stepped
// children. One call is therefore not guaranteed to reach a fixed point.
//
// Iterate (and Simplify, which is Iterate with Step) repeats a step
// function until the result is structurally equal to its input. The rule
// set is not confluent and has historically contained rewrites that
// oscillate, so the driver carries termination guards:
//
//   - a pass quota (WithMaxPasses, default 1000) for runs that keep
//     producing new trees
//   - a cycle detector keyed by content ID for runs that revisit a tree
//   - a depth bound (WithMaxDepth, default 10000) checked before every
//     pass, since Step recurses
//
// Each guard fails with a typed *Error; see errors.go for the codes.
//
// Unary functions have no rewrite rules and Step returns them unchanged,
// arguments included. Callers that want simplified arguments simplify
// them before wrapping.
package simplify
