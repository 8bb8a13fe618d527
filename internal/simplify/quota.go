package simplify

import "fmt"

// QuotaEnforcer counts passes in one simplification run and enforces a
// maximum.
//
// The quota catches runs that keep producing new, ever-growing trees;
// cycles that revisit an earlier tree are caught sooner by CycleDetector.
type QuotaEnforcer struct {
	maxPasses int
	current   int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxPasses int) *QuotaEnforcer {
	return &QuotaEnforcer{maxPasses: maxPasses}
}

// Check increments the pass counter and returns a NOT_CONVERGED error once
// the limit is exceeded. Call it before each pass.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxPasses {
		return &Error{
			Code:    ErrCodeNotConverged,
			Message: fmt.Sprintf("no fixed point within %d passes", q.maxPasses),
			Passes:  q.current - 1,
			Details: map[string]string{
				"max_passes": fmt.Sprintf("%d", q.maxPasses),
			},
		}
	}
	return nil
}

// Current returns the number of passes checked so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxPasses returns the limit.
func (q *QuotaEnforcer) MaxPasses() int {
	return q.maxPasses
}
