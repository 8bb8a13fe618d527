// Package harness runs YAML scenarios against the engine.
//
// A scenario names a starting expression, either inline or as an entry of
// a CUE library, and a list of steps. Each step applies one operation to
// the current tree:
//
//	derive         replace the tree with its derivative
//	simplify       replace the tree with its simplified form
//	simplify_step  apply a single rewrite pass
//	evaluate       evaluate the tree at a point (the tree is unchanged)
//
// Steps may carry expectations on the printed tree, the pass count, the
// numeric value or the error code. Every run is recorded in a fresh
// in-memory run log with a deterministic clock and run IDs, so the
// resulting trace is reproducible and can be compared against a golden
// file.
//
// Example scenario:
//
//	name: product_rule
//	description: d/dx (x*x) simplifies to 2x
//	expr: {type: prod, left: x, right: x}
//	steps:
//	  - op: derive
//	  - op: simplify
//	    expect:
//	      print: "(2 * x)"
//	  - op: evaluate
//	    at: 3
//	    expect:
//	      value: 6
//	assertions:
//	  - type: final_state
//	    table: runs
//	    where: {op: simplify}
//	    expect: {status: ok, passes: 3}
package harness
