package simplify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/symb/internal/expr"
)

const (
	// DefaultMaxPasses is the default pass quota per run.
	DefaultMaxPasses = 1000

	// DefaultMaxDepth is the default bound on tree depth, checked before
	// every pass.
	DefaultMaxDepth = 10000
)

// Observer is called after every pass with the 1-based pass number and the
// tree that pass produced, including the final pass that confirms the
// fixed point. A non-nil error aborts the run.
type Observer func(pass int, n expr.Node) error

type config struct {
	maxPasses    int
	maxDepth     int
	detectCycles bool
	observer     Observer
	logger       *slog.Logger
}

// Option configures a simplification run.
type Option func(*config)

// WithMaxPasses sets the pass quota.
//
// Default: 1000 (DefaultMaxPasses).
func WithMaxPasses(n int) Option {
	return func(c *config) {
		c.maxPasses = n
	}
}

// WithMaxDepth sets the depth bound.
//
// Default: 10000 (DefaultMaxDepth).
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithCycleDetection turns the cycle detector on or off. It is on by
// default; with it off, an oscillating rule set runs until the quota.
func WithCycleDetection(enabled bool) Option {
	return func(c *config) {
		c.detectCycles = enabled
	}
}

// WithObserver registers a per-pass callback.
func WithObserver(fn Observer) Option {
	return func(c *config) {
		c.observer = fn
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) config {
	c := config{
		maxPasses:    DefaultMaxPasses,
		maxDepth:     DefaultMaxDepth,
		detectCycles: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// CheckDepth returns a DEPTH_EXCEEDED *Error if n is deeper than maxDepth,
// and nil otherwise. It does not recurse, so it is safe on any input.
func CheckDepth(n expr.Node, maxDepth int) *Error {
	if depth := expr.Depth(n); depth > maxDepth {
		return newDepthError(0, depth, maxDepth)
	}
	return nil
}

// Simplify rewrites n with Step until a fixed point.
//
// On failure the last tree reached is returned together with the error.
func Simplify(n expr.Node, opts ...Option) (expr.Node, error) {
	return Iterate(n, Step, opts...)
}

// Iterate applies step to n repeatedly until a pass returns a tree equal to
// its input. Two trees count as equal if they are structurally equal or
// share a content ID; the latter lets trees holding NaN constants converge.
//
// Iteration stops with an *Error when the pass quota is exhausted
// (NOT_CONVERGED), when a pass reproduces an earlier tree (CYCLE_DETECTED),
// or when the tree is deeper than the depth bound (DEPTH_EXCEEDED). The
// depth bound is checked before the input is first walked, so arbitrarily
// deep input fails cleanly. Ill-formed input (see expr.Validate) is
// rejected up front, except for vector arity mismatches, which step
// reports. Errors from step are returned wrapped with the pass number. In every failure
// case the last tree reached is returned alongside the error.
func Iterate(n expr.Node, step StepFunc, opts ...Option) (expr.Node, error) {
	if n == nil {
		return nil, errors.New("simplify: nil expression")
	}
	cfg := newConfig(opts)
	log := cfg.logger

	quota := NewQuotaEnforcer(cfg.maxPasses)
	cycles := NewCycleDetector()

	checkDepth := func(cur expr.Node, passes int) error {
		err := CheckDepth(cur, cfg.maxDepth)
		if err != nil {
			err.Passes = passes
			log.Error("expression too deep",
				"depth", err.Details["depth"],
				"limit", cfg.maxDepth,
				"passes", passes,
				"event", "depth_exceeded",
			)
			return err
		}
		return nil
	}

	// Depth and Validate are iterative and must run before the first
	// recursive walk.
	if err := checkDepth(n, 0); err != nil {
		return n, err
	}
	if err := expr.Validate(n); err != nil && !errors.Is(err, expr.ErrDimensionMismatch) {
		return n, fmt.Errorf("simplify: %w", err)
	}

	cur := n
	curID, err := expr.ID(cur)
	if err != nil {
		return n, fmt.Errorf("simplify: %w", err)
	}
	cycles.Record(curID, 0)

	for pass := 1; ; pass++ {
		if pass > 1 {
			if err := checkDepth(cur, pass-1); err != nil {
				return cur, err
			}
		}

		if err := quota.Check(); err != nil {
			log.Error("simplification did not converge",
				"passes", pass-1,
				"limit", cfg.maxPasses,
				"expr_id", curID,
				"event", "not_converged",
			)
			return cur, err
		}

		next, err := step(cur)
		if err != nil {
			log.Error("simplification pass failed",
				"pass", pass,
				"expr_id", curID,
				"error", err,
			)
			return cur, fmt.Errorf("pass %d: %w", pass, err)
		}

		if cfg.observer != nil {
			if err := cfg.observer(pass, next); err != nil {
				return next, fmt.Errorf("observer at pass %d: %w", pass, err)
			}
		}

		if expr.Equal(next, cur) {
			log.Debug("simplification converged", "passes", pass, "expr_id", curID)
			return next, nil
		}

		nextID, err := expr.ID(next)
		if err != nil {
			return cur, fmt.Errorf("pass %d: %w", pass, err)
		}
		if nextID == curID {
			log.Debug("simplification converged", "passes", pass, "expr_id", curID)
			return next, nil
		}

		log.Debug("simplification pass",
			"pass", pass,
			"expr_id", nextID,
			"size", expr.Size(next),
		)

		if cfg.detectCycles {
			if first, seen := cycles.WouldCycle(nextID); seen {
				log.Error("simplification cycle detected",
					"pass", pass,
					"first_seen", first,
					"expr_id", nextID,
					"event", "cycle_detected",
				)
				return next, newCycleError(pass, nextID)
			}
			cycles.Record(nextID, pass)
		}

		cur, curID = next, nextID
	}
}
