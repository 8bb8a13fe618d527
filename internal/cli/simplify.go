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

// SimplifyOptions holds flags for the simplify command.
type SimplifyOptions struct {
	*RootOptions
	Input     ExprInput
	Step      bool
	MaxPasses int
	Database  string
}

// SimplifyResult is the output of the simplify command.
type SimplifyResult struct {
	Input  string   `json:"input"`
	Output string   `json:"output"`
	Trace  []string `json:"trace"`
}

// String renders the result for text output.
func (r SimplifyResult) String() string {
	var b strings.Builder
	for i, t := range r.Trace {
		fmt.Fprintf(&b, "pass %d: %s\n", i+1, t)
	}
	b.WriteString(r.Output)
	return b.String()
}

// SimplifyFailure is the error detail of a failed simplification.
type SimplifyFailure struct {
	Passes int    `json:"passes"`
	Last   string `json:"last"`
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimplifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simplify",
		Short: "Simplify an expression by iterated rewriting",
		Long: `Simplify an expression tree.

Each pass applies the rewrite rules once, bottom-up. Without --step the
passes repeat until one leaves the tree unchanged, the pass quota is
used up, or a tree repeats.

Exit codes:
  0 - Success
  1 - Simplification failed (NOT_CONVERGED, CYCLE_DETECTED,
      DIMENSION_MISMATCH, DEPTH_EXCEEDED)
  2 - Command error (bad input, unreadable run log)

Examples:
  symb simplify --expr '{type: sum, left: x, right: x}'
  symb simplify --file tree.json --step
  symb simplify --file ./lib --entry quadratic --db ./symb.db --max-passes 50`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimplify(opts, cmd)
		},
	}

	opts.Input.AddFlags(cmd)
	cmd.Flags().BoolVar(&opts.Step, "step", false, "apply a single pass")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", simplify.DefaultMaxPasses, "pass quota")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite run log")

	return cmd
}

func runSimplify(opts *SimplifyOptions, cmd *cobra.Command) error {
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

	var res *engine.Result
	if opts.Step {
		res, err = sess.engine.Step(ctx, n)
	} else {
		res, err = sess.engine.Simplify(ctx, n)
	}
	if res == nil {
		return WrapExitError(ExitCommandError, "simplify failed", err)
	}
	out.VerboseLog("recorded run %s", res.Run.ID)
	if err != nil {
		return simplifyFailure(out, res.Output, res.Run.Passes, err)
	}

	result := SimplifyResult{
		Input:  expr.Print(n),
		Output: expr.Print(res.Output),
		Trace:  make([]string, 0, len(res.Trace)),
	}
	for _, t := range res.Trace {
		result.Trace = append(result.Trace, expr.Print(t))
	}
	return out.SuccessRun(res.Run.ID, result)
}

// simplifyFailure reports a recorded simplification failure and returns
// the ExitFailure error.
func simplifyFailure(out *OutputFormatter, last expr.Node, passes int, err error) error {
	code := string(simplify.CodeOf(err))
	if ferr := out.Error(code, err.Error(), SimplifyFailure{Passes: passes, Last: expr.Print(last)}); ferr != nil {
		return ferr
	}
	return WrapExitError(ExitFailure, "simplification failed", err)
}
