package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symb/internal/engine"
	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
)

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	*RootOptions
	Input     ExprInput
	Simplify  bool
	MaxPasses int
	Database  string
}

// DeriveResult is the output of the derive command.
type DeriveResult struct {
	Input      string `json:"input"`
	Derivative string `json:"derivative"`
	Simplified string `json:"simplified,omitempty"`
	Passes     int    `json:"passes,omitempty"`
}

// String renders the result for text output.
func (r DeriveResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "d/dx %s\n  = %s", r.Input, r.Derivative)
	if r.Simplified != "" {
		fmt.Fprintf(&b, "\n  = %s  (%d passes)", r.Simplified, r.Passes)
	}
	return b.String()
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Differentiate an expression with respect to x",
		Long: `Differentiate an expression tree with respect to x.

The derivative is printed exactly as the differentiation rules build it.
Use --simplify to also run the simplifier to a fixed point.

Runs are recorded in the run log given by --db; without --db an
in-memory log is used and discarded.

Exit codes:
  0 - Success
  1 - Simplification failed (NOT_CONVERGED, CYCLE_DETECTED, ...)
  2 - Command error (bad input, unreadable run log)

Examples:
  symb derive --expr '{type: pow, base: x, exponent: 3}'
  symb derive --file ./lib --entry wave --simplify
  symb derive --file tree.yaml --simplify --db ./symb.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(opts, cmd)
		},
	}

	opts.Input.AddFlags(cmd)
	cmd.Flags().BoolVar(&opts.Simplify, "simplify", false, "simplify the derivative")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", simplify.DefaultMaxPasses, "pass quota for --simplify")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite run log")

	return cmd
}

func runDerive(opts *DeriveOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	n, err := opts.Input.Load()
	if err != nil {
		return out.Report(ErrCodeBadInput, err)
	}
	if opts.MaxPasses < 1 {
		return NewExitError(ExitCommandError, "--max-passes must be at least 1")
	}

	sess, err := openSession(ctx, opts.Database, opts.RootOptions, cmd, engine.WithMaxPasses(opts.MaxPasses))
	if err != nil {
		return out.Report(ErrCodeStore, err)
	}
	defer sess.Close()

	derived, err := sess.engine.Derive(ctx, n)
	if err != nil {
		return WrapExitError(ExitCommandError, "derive failed", err)
	}
	out.VerboseLog("recorded run %s", derived.Run.ID)

	result := DeriveResult{
		Input:      expr.Print(n),
		Derivative: expr.Print(derived.Output),
	}
	if !opts.Simplify {
		return out.SuccessRun(derived.Run.ID, result)
	}

	simplified, err := sess.engine.Simplify(ctx, derived.Output)
	if simplified == nil {
		return WrapExitError(ExitCommandError, "simplify failed", err)
	}
	out.VerboseLog("recorded run %s", simplified.Run.ID)
	if err != nil {
		return simplifyFailure(out, simplified.Output, simplified.Run.Passes, err)
	}

	result.Simplified = expr.Print(simplified.Output)
	result.Passes = simplified.Run.Passes
	return out.SuccessRun(simplified.Run.ID, result)
}
