package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symb/internal/expr"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Input ExprInput
	At    []float64
}

// EvalPoint is one evaluation.
type EvalPoint struct {
	At    Number `json:"at"`
	Value Number `json:"value"`
}

// EvalResult is the output of the eval command.
type EvalResult struct {
	Expr   string      `json:"expr"`
	Points []EvalPoint `json:"points"`
}

// String renders the result for text output.
func (r EvalResult) String() string {
	var b strings.Builder
	b.WriteString(r.Expr)
	for _, p := range r.Points {
		fmt.Fprintf(&b, "\n  x = %s: %s", expr.FormatConstant(float64(p.At)), expr.FormatConstant(float64(p.Value)))
	}
	return b.String()
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate an expression at one or more points",
		Long: `Evaluate an expression tree at the given values of x.

Vectors have no scalar value and evaluate to 0.

Examples:
  symb eval --expr '{type: prod, left: x, right: x}' --at 3
  symb eval --file ./lib --entry wave --at 0 --at 0.5
  symb eval --file tree.json --at 1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	opts.Input.AddFlags(cmd)
	cmd.Flags().Float64SliceVar(&opts.At, "at", nil, "value of x (repeatable)")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	n, err := opts.Input.Load()
	if err != nil {
		return out.Report(ErrCodeBadInput, err)
	}

	result := EvalResult{Expr: expr.Print(n)}
	for _, at := range opts.At {
		result.Points = append(result.Points, EvalPoint{
			At:    Number(at),
			Value: Number(expr.Evaluate(n, at)),
		})
	}

	return out.Success(result)
}
