package compiler

import (
	"fmt"
	"math"
	"regexp"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
)

// Validation error codes (E110-E119)
const (
	ErrInvalidName      = "E110" // entry name is not an identifier
	ErrInvalidTree      = "E111" // malformed tree (nil child, vector arity)
	ErrTreeTooDeep      = "E112" // tree deeper than the simplifier accepts
	ErrBadSamplePoint   = "E113" // sample point is NaN or infinite
	ErrDuplicateSample  = "E114" // sample point listed twice
	ErrDuplicateEntries = "E115" // two entries with the same name
)

// ValidationError represents a library validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks compiled entries. Returns all errors found (does not
// fail-fast).
func Validate(entries []Entry) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		if seen[e.Name] {
			errs = append(errs, ValidationError{
				Field:   e.Name,
				Message: "duplicate entry name",
				Code:    ErrDuplicateEntries,
			})
		}
		seen[e.Name] = true
		errs = append(errs, validateEntry(e)...)
	}
	return errs
}

func validateEntry(e *Entry) []ValidationError {
	var errs []ValidationError

	if !namePattern.MatchString(e.Name) {
		errs = append(errs, ValidationError{
			Field:   e.Name,
			Message: "name must be an identifier",
			Code:    ErrInvalidName,
		})
	}

	if err := expr.Validate(e.Tree); err != nil {
		errs = append(errs, ValidationError{
			Field:   e.Name + ".tree",
			Message: err.Error(),
			Code:    ErrInvalidTree,
		})
	} else if d := expr.Depth(e.Tree); d > simplify.DefaultMaxDepth {
		errs = append(errs, ValidationError{
			Field:   e.Name + ".tree",
			Message: fmt.Sprintf("depth %d exceeds %d", d, simplify.DefaultMaxDepth),
			Code:    ErrTreeTooDeep,
		})
	}

	points := make(map[float64]bool, len(e.At))
	for i, p := range e.At {
		field := fmt.Sprintf("%s.at[%d]", e.Name, i)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "sample point must be finite",
				Code:    ErrBadSamplePoint,
			})
			continue
		}
		if points[p] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("sample point %s listed twice", expr.FormatConstant(p)),
				Code:    ErrDuplicateSample,
			})
		}
		points[p] = true
	}

	return errs
}
