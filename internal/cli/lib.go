package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symb/internal/compiler"
	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
)

// LibOptions holds flags for the lib command.
type LibOptions struct {
	*RootOptions
	ValidateOnly bool
}

// LibSample is an entry evaluated at one of its sample points.
type LibSample struct {
	At    Number `json:"at"`
	Value Number `json:"value"`
	Slope Number `json:"slope"`
}

// LibEntry describes one library entry.
type LibEntry struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Expr        string      `json:"expr"`
	Derivative  string      `json:"derivative"`
	Error       string      `json:"error,omitempty"` // simplification error code, if any
	Samples     []LibSample `json:"samples,omitempty"`
}

// LibResult is the output of the lib command.
type LibResult struct {
	Files   int        `json:"files"`
	Entries []LibEntry `json:"entries"`
}

// String renders the result for text output.
func (r LibResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d entries from %d file(s)", len(r.Entries), r.Files)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "\n\n%s: %s", e.Name, e.Expr)
		if e.Description != "" {
			fmt.Fprintf(&b, "\n  %s", e.Description)
		}
		fmt.Fprintf(&b, "\n  d/dx = %s", e.Derivative)
		if e.Error != "" {
			fmt.Fprintf(&b, "  [%s]", e.Error)
		}
		for _, s := range e.Samples {
			fmt.Fprintf(&b, "\n  x = %s: %s, slope %s",
				expr.FormatConstant(float64(s.At)),
				expr.FormatConstant(float64(s.Value)),
				expr.FormatConstant(float64(s.Slope)))
		}
	}
	return b.String()
}

// NewLibCommand creates the lib command.
func NewLibCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lib [path]",
		Short: "Load, validate and list an expression library",
		Long: `Load the CUE expression library at path and list its entries.

path is a directory (loaded as one CUE package) or a single .cue file;
it defaults to the current directory. Entries live under the top-level
expr struct:

  expr: cube: {
      description: "x cubed"
      tree: {type: "pow", base: "x", exponent: 3}
      at: [2]
  }

Each entry is listed with its simplified derivative and, for every
sample point in at, its value and slope.

Exit codes:
  0 - Library is valid
  1 - Validation failed
  2 - Command error (no CUE files, CUE syntax or type error)

Examples:
  symb lib ./lib
  symb lib ./lib/calculus.cue --validate-only
  symb lib ./lib --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runLib(opts, cmd, path)
		},
	}

	cmd.Flags().BoolVar(&opts.ValidateOnly, "validate-only", false, "validate without listing entries")

	return cmd
}

func runLib(opts *LibOptions, cmd *cobra.Command, path string) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger(cmd.ErrOrStderr())

	out.VerboseLog("loading library from %s", path)
	lib, errs := compiler.LoadLibrary(path, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		code := compiler.ErrCodeGeneric
		var loadErr *compiler.LoadError
		if errors.As(errs[0], &loadErr) {
			code = loadErr.Code
		}
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		if err := out.Error(code, errs[0].Error(), msgs); err != nil {
			return err
		}
		return WrapExitError(ExitCommandError, "library load failed", errs[0])
	}

	if verrs := compiler.Validate(lib.Entries); len(verrs) > 0 {
		if err := out.Error(ErrCodeValidation, fmt.Sprintf("%d validation error(s)", len(verrs)), verrs); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "library validation failed")
	}
	out.VerboseLog("validated %d entries", len(lib.Entries))

	if opts.ValidateOnly {
		return out.Success(fmt.Sprintf("✓ %d entries valid", len(lib.Entries)))
	}

	result := LibResult{Files: lib.FileCount, Entries: make([]LibEntry, 0, len(lib.Entries))}
	for _, name := range lib.Names() {
		e, _ := lib.Lookup(name)
		d, err := simplify.Simplify(expr.Derive(e.Tree), simplify.WithLogger(logger))
		le := LibEntry{
			Name:        e.Name,
			Description: e.Description,
			Expr:        expr.Print(e.Tree),
			Derivative:  expr.Print(d),
		}
		if err != nil {
			le.Error = string(simplify.CodeOf(err))
		}
		for _, x := range e.At {
			le.Samples = append(le.Samples, LibSample{
				At:    Number(x),
				Value: Number(expr.Evaluate(e.Tree, x)),
				Slope: Number(expr.Evaluate(d, x)),
			})
		}
		result.Entries = append(result.Entries, le)
	}
	return out.Success(result)
}
