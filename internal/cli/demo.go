package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symb/internal/expr"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Database string
}

// demoCase is one expression walked through by the demo.
type demoCase struct {
	tree   expr.Node
	at     *float64 // evaluate the expression here
	derive bool
	steps  int      // simplify-step passes applied to the derivative (or the tree)
	final  *float64 // evaluate the last tree here
}

func floatPtr(v float64) *float64 { return &v }

var demoCases = []demoCase{
	{
		tree:   expr.Sub(expr.Scale(2, expr.X()), expr.Scale(2, expr.Pow(expr.X(), 2))),
		at:     floatPtr(5),
		derive: true,
		steps:  5,
		final:  floatPtr(5),
	},
	{
		tree:   expr.Cos(expr.Scale(2, expr.X())),
		at:     floatPtr(math.Pi),
		derive: true,
		steps:  4,
		final:  floatPtr(math.Pi),
	},
	{
		tree:   expr.Pow(expr.X(), 3),
		at:     floatPtr(3),
		derive: true,
		steps:  1,
		final:  floatPtr(3),
	},
	{
		tree:   expr.Pow(expr.Cos(expr.X()), 2),
		derive: true,
		steps:  3,
	},
	{
		tree:  expr.Mul(expr.Scale(2, expr.X()), expr.Scale(4, expr.X())),
		steps: 2,
	},
	{
		tree:   expr.Div(expr.Const(1), expr.X()),
		derive: true,
		steps:  2,
	},
}

// DemoCase is the walk-through of one expression.
type DemoCase struct {
	Expr       string   `json:"expr"`
	Value      *Number  `json:"value,omitempty"`
	Derivative string   `json:"derivative,omitempty"`
	Steps      []string `json:"steps"`
	FinalValue *Number  `json:"final_value,omitempty"`
}

// DemoResult is the output of the demo command.
type DemoResult struct {
	Cases []DemoCase `json:"cases"`
}

// String renders the result one value per line, cases separated by a
// divider.
func (r DemoResult) String() string {
	var b strings.Builder
	for i, c := range r.Cases {
		if i > 0 {
			b.WriteString("<------>\n")
		}
		b.WriteString(c.Expr + "\n")
		if c.Value != nil {
			b.WriteString(expr.FormatConstant(float64(*c.Value)) + "\n")
		}
		if c.Derivative != "" {
			b.WriteString(c.Derivative + "\n")
		}
		for _, s := range c.Steps {
			b.WriteString(s + "\n")
		}
		if c.FinalValue != nil {
			b.WriteString(expr.FormatConstant(float64(*c.FinalValue)) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk a fixed set of expressions through derive and simplify",
		Long: `Print a fixed set of expressions, their values, their derivatives
and the tree after each single simplify step.

The cases are 2x - 2x^2, cos(2x), x^3, cos(x)^2, (2x)(4x) and 1/x.

Examples:
  symb demo
  symb demo --format json
  symb demo --db ./symb.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the steps in this SQLite run log")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(ctx, opts.Database, opts.RootOptions, cmd)
	if err != nil {
		return out.Report(ErrCodeStore, err)
	}
	defer sess.Close()

	var result DemoResult
	for _, dc := range demoCases {
		c, err := runDemoCase(ctx, sess, dc)
		if err != nil {
			return WrapExitError(ExitFailure, "demo failed", err)
		}
		result.Cases = append(result.Cases, c)
	}

	return out.Success(result)
}

func runDemoCase(ctx context.Context, sess *session, dc demoCase) (DemoCase, error) {
	c := DemoCase{Expr: expr.Print(dc.tree), Steps: []string{}}
	if dc.at != nil {
		v := Number(expr.Evaluate(dc.tree, *dc.at))
		c.Value = &v
	}

	cur := dc.tree
	if dc.derive {
		res, err := sess.engine.Derive(ctx, cur)
		if err != nil {
			return c, err
		}
		cur = res.Output
		c.Derivative = expr.Print(cur)
	}

	for i := 0; i < dc.steps; i++ {
		res, err := sess.engine.Step(ctx, cur)
		if err != nil {
			return c, fmt.Errorf("%s: step %d: %w", c.Expr, i+1, err)
		}
		cur = res.Output
		c.Steps = append(c.Steps, expr.Print(cur))
	}

	if dc.final != nil {
		v := Number(expr.Evaluate(cur, *dc.final))
		c.FinalValue = &v
	}
	return c, nil
}
