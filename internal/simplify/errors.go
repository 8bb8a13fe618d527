package simplify

import (
	"errors"
	"fmt"
)

// Error is returned when simplification cannot produce a result.
//
// The tree reached before the failure is returned alongside the error, so
// callers can still inspect or print partial progress.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Passes is the number of completed passes when the error occurred.
	Passes int

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes simplification errors.
type ErrorCode string

const (
	// ErrCodeNotConverged indicates the pass quota was exhausted.
	ErrCodeNotConverged ErrorCode = "NOT_CONVERGED"

	// ErrCodeCycleDetected indicates a pass produced a tree already seen
	// earlier in the same run.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// ErrCodeDimensionMismatch indicates a vector operation over operands
	// of different arity.
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"

	// ErrCodeDepthExceeded indicates the tree grew deeper than the
	// configured bound.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Passes > 0 {
		return fmt.Sprintf("%s: %s (passes=%d)", e.Code, e.Message, e.Passes)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotConverged reports whether err means the iteration did not reach a
// fixed point, either by exhausting its quota or by cycling.
func IsNotConverged(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeNotConverged || code == ErrCodeCycleDetected
}

// IsCycleError reports whether err is a cycle detection error.
func IsCycleError(err error) bool {
	return CodeOf(err) == ErrCodeCycleDetected
}

// IsDimensionMismatch reports whether err is a vector arity error.
func IsDimensionMismatch(err error) bool {
	return CodeOf(err) == ErrCodeDimensionMismatch
}

// IsDepthExceeded reports whether err is a depth bound error.
func IsDepthExceeded(err error) bool {
	return CodeOf(err) == ErrCodeDepthExceeded
}

func newCycleError(passes int, id string) *Error {
	return &Error{
		Code:    ErrCodeCycleDetected,
		Message: "pass produced a previously seen expression",
		Passes:  passes,
		Details: map[string]string{"expr_id": id},
	}
}

func newDepthError(passes, depth, maxDepth int) *Error {
	return &Error{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("expression depth %d exceeds limit %d", depth, maxDepth),
		Passes:  passes,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", depth),
			"max_depth": fmt.Sprintf("%d", maxDepth),
		},
	}
}
