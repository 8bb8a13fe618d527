package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/symb/internal/compiler"
	"github.com/roach88/symb/internal/engine"
	"github.com/roach88/symb/internal/expr"
	"github.com/roach88/symb/internal/simplify"
	"github.com/roach88/symb/internal/store"
)

// ExprInput holds the flags that select the expression a command works on.
type ExprInput struct {
	Expr  string // inline JSON or YAML tree
	File  string // .json, .yaml, .yml or .cue file, or a CUE library directory
	Entry string // library entry, required with .cue files and directories
}

// AddFlags registers --expr, --file and --entry on cmd.
func (in *ExprInput) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.Expr, "expr", "e", "", "inline expression tree (JSON or YAML)")
	cmd.Flags().StringVarP(&in.File, "file", "f", "", "expression file or CUE library")
	cmd.Flags().StringVar(&in.Entry, "entry", "", "library entry name (with a CUE library)")
}

// Load resolves the flags to a validated tree. Failures are ExitErrors
// with ExitCommandError.
//
// Sums of vectors with different arity are let through: the simplifier
// reports them as DIMENSION_MISMATCH.
func (in *ExprInput) Load() (expr.Node, error) {
	n, err := in.load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid expression input", err)
	}
	if err := simplify.CheckDepth(n, simplify.DefaultMaxDepth); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid expression input", err)
	}
	if err := expr.Validate(n); err != nil && !errors.Is(err, expr.ErrDimensionMismatch) {
		return nil, WrapExitError(ExitCommandError, "invalid expression input", err)
	}
	return n, nil
}

func (in *ExprInput) load() (expr.Node, error) {
	switch {
	case in.Expr != "" && in.File != "":
		return nil, fmt.Errorf("--expr and --file are mutually exclusive")
	case in.Expr != "":
		return decodeText([]byte(in.Expr))
	case in.File == "":
		return nil, fmt.Errorf("one of --expr or --file is required")
	}

	info, err := os.Stat(in.File)
	if err != nil {
		return nil, err
	}
	if info.IsDir() || filepath.Ext(in.File) == ".cue" {
		return in.loadEntry()
	}
	if in.Entry != "" {
		return nil, fmt.Errorf("--entry is only valid with a CUE library")
	}

	switch strings.ToLower(filepath.Ext(in.File)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(in.File))
	}
	data, err := os.ReadFile(in.File)
	if err != nil {
		return nil, err
	}
	return decodeText(data)
}

func (in *ExprInput) loadEntry() (expr.Node, error) {
	if in.Entry == "" {
		return nil, fmt.Errorf("--entry is required with a CUE library")
	}
	lib, errs := compiler.LoadLibrary(in.File, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	entry, ok := lib.Lookup(in.Entry)
	if !ok {
		return nil, fmt.Errorf("entry %q not found in %s (have %s)", in.Entry, in.File, strings.Join(lib.Names(), ", "))
	}
	return entry.Tree, nil
}

// decodeText parses a JSON or YAML document. YAML is a superset of JSON,
// so one decoder serves both.
func decodeText(data []byte) (expr.Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	return expr.Decode(raw)
}

// session is an engine writing to a run log for the life of one command.
type session struct {
	store  *store.Store
	engine *engine.Engine
}

// openSession opens the run log at path, or an in-memory log when path is
// empty, and resumes the engine's clock after the last recorded run.
func openSession(ctx context.Context, path string, opts *RootOptions, cmd *cobra.Command, engineOpts ...engine.Option) (*session, error) {
	if path == "" {
		path = ":memory:"
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open run log", err)
	}

	engineOpts = append([]engine.Option{engine.WithLogger(opts.Logger(cmd.ErrOrStderr()))}, engineOpts...)
	eng, err := engine.Resume(ctx, st, engine.UUIDv7Generator{}, engineOpts...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read run log", err)
	}
	return &session{store: st, engine: eng}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
