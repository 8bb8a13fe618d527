package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/store"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// file and prefixes run IDs.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Expr is the starting tree in the canonical encoding or its
	// shorthands (a bare number, the string "x").
	Expr any `yaml:"expr,omitempty"`

	// Library and Entry select the starting tree from a CUE library
	// instead. Library is resolved relative to the scenario file.
	Library string `yaml:"library,omitempty"`
	Entry   string `yaml:"entry,omitempty"`

	// MaxPasses overrides the pass quota of simplify steps.
	MaxPasses int `yaml:"max_passes,omitempty"`

	// Steps are executed in order on the current tree.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and run log.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation applied to the current tree.
type Step struct {
	// Op is one of derive, simplify, simplify_step, evaluate.
	Op string `yaml:"op"`

	// At is the evaluation point (evaluate only).
	At *float64 `yaml:"at,omitempty"`

	// Expect validates the step's outcome. Without it, the step only has
	// to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Print is the expected printed tree after the step.
	Print string `yaml:"print,omitempty"`

	// Passes is the expected pass count of a simplify step.
	Passes *int `yaml:"passes,omitempty"`

	// Value is the expected result of an evaluate step, within
	// Tolerance (default DefaultTolerance). NaN matches NaN.
	Value     *float64 `yaml:"value,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`

	// Error is the expected error code, e.g. DIMENSION_MISMATCH.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the run log.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count,
	// final_state.
	Type string `yaml:"type"`

	// Op is the step op (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Print optionally narrows trace_contains to events whose output
	// prints this way.
	Print string `yaml:"print,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Table, Where and Expect query the run log (final_state). Exactly
	// one row must match Where; Expect is a subset match on its columns.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Step ops.
const (
	OpDerive       = store.OpDerive
	OpSimplify     = store.OpSimplify
	OpSimplifyStep = store.OpSimplifyStep
	OpEvaluate     = "evaluate"
)

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// DefaultTolerance is the absolute tolerance of value expectations.
const DefaultTolerance = 1e-9

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Library != "" && !filepath.IsAbs(scenario.Library) {
		scenario.Library = filepath.Join(filepath.Dir(path), scenario.Library)
	}
	if scenario.Library != "" {
		if _, err := os.Stat(scenario.Library); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: library not found: %s", scenario.Library)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Library paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Expr != nil && s.Library != "":
		return fmt.Errorf("expr and library are mutually exclusive")
	case s.Expr != nil:
		if _, err := expr.Decode(s.Expr); err != nil {
			return fmt.Errorf("expr: %w", err)
		}
	case s.Library != "":
		if s.Entry == "" {
			return fmt.Errorf("entry is required with library")
		}
	default:
		return fmt.Errorf("one of expr or library is required")
	}

	if s.MaxPasses < 0 {
		return fmt.Errorf("max_passes must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpDerive, OpSimplify, OpSimplifyStep:
		if s.At != nil {
			return fmt.Errorf("steps[%d]: at is only valid for evaluate", index)
		}
		if s.Expect != nil && s.Expect.Value != nil {
			return fmt.Errorf("steps[%d].expect: value is only valid for evaluate", index)
		}
	case OpEvaluate:
		if s.At == nil {
			return fmt.Errorf("steps[%d]: at is required for evaluate", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.Expect != nil {
		if s.Expect.Passes != nil && s.Op != OpSimplify && s.Op != OpSimplifyStep {
			return fmt.Errorf("steps[%d].expect: passes is only valid for simplify steps", index)
		}
		if s.Expect.Tolerance < 0 {
			return fmt.Errorf("steps[%d].expect: tolerance must be non-negative", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
