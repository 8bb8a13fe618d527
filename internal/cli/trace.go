package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symb/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run in full
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	Seq    int64  `json:"seq"`
	ID     string `json:"id"`
	Op     string `json:"op"`
	Status string `json:"status"`
	Passes int    `json:"passes"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
}

// RunList is the output of the trace command without --run.
type RunList struct {
	Runs []RunSummary `json:"runs"`
}

// String renders the listing for text output.
func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs found in run log."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d run(s)", len(l.Runs))
	for _, r := range l.Runs {
		fmt.Fprintf(&b, "\n[%d] %s %s %s (%d passes)\n    %s -> %s", r.Seq, r.ID, r.Op, r.Status, r.Passes, r.Input, r.Output)
	}
	return b.String()
}

// RunTrace is the output of the trace command with --run.
type RunTrace struct {
	RunSummary
	Message       string   `json:"message,omitempty"`
	MaxPasses     int      `json:"max_passes,omitempty"`
	EngineVersion string   `json:"engine_version"`
	Trace         []string `json:"trace"`
}

// String renders the trace for text output.
func (t RunTrace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", t.ID)
	fmt.Fprintf(&b, "Op: %s  Seq: %d  Engine: %s\n", t.Op, t.Seq, t.EngineVersion)
	fmt.Fprintf(&b, "Status: %s", t.Status)
	if t.Message != "" {
		fmt.Fprintf(&b, " (%s)", t.Message)
	}
	fmt.Fprintf(&b, "\n\ninput:  %s", t.Input)
	for i, p := range t.Trace {
		fmt.Fprintf(&b, "\npass %d: %s", i+1, p)
	}
	if t.Output != "" {
		fmt.Fprintf(&b, "\noutput: %s", t.Output)
	}
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `List the runs in a run log, or show every pass of one run.

Runs are listed in seq order, the order they were recorded in.

Examples:
  symb trace --db ./symb.db
  symb trace --db ./symb.db --run 0192f7c4-...
  symb trace --db ./symb.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			if err := out.Error(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil); err != nil {
				return err
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		trace, err := buildRunTrace(ctx, st, run)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return out.Success(trace)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	list := RunList{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		summary, err := summarizeRun(ctx, st, run)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		list.Runs = append(list.Runs, summary)
	}
	return out.Success(list)
}

func summarizeRun(ctx context.Context, st *store.Store, run store.Run) (RunSummary, error) {
	s := RunSummary{
		Seq:    run.Seq,
		ID:     run.ID,
		Op:     run.Op,
		Status: run.Status,
		Passes: run.Passes,
	}
	in, err := st.ReadExprRecord(ctx, run.InputID)
	if err != nil {
		return s, fmt.Errorf("input of %s: %w", run.ID, err)
	}
	s.Input = in.Printed
	if run.OutputID != "" {
		o, err := st.ReadExprRecord(ctx, run.OutputID)
		if err != nil {
			return s, fmt.Errorf("output of %s: %w", run.ID, err)
		}
		s.Output = o.Printed
	}
	return s, nil
}

func buildRunTrace(ctx context.Context, st *store.Store, run store.Run) (RunTrace, error) {
	summary, err := summarizeRun(ctx, st, run)
	if err != nil {
		return RunTrace{}, err
	}
	t := RunTrace{
		RunSummary:    summary,
		Message:       run.Message,
		MaxPasses:     run.MaxPasses,
		EngineVersion: run.EngineVersion,
		Trace:         []string{},
	}

	passes, err := st.ReadPasses(ctx, run.ID)
	if err != nil {
		return RunTrace{}, err
	}
	for _, p := range passes {
		rec, err := st.ReadExprRecord(ctx, p.ExprID)
		if err != nil {
			return RunTrace{}, fmt.Errorf("pass %d of %s: %w", p.Pass, run.ID, err)
		}
		t.Trace = append(t.Trace, rec.Printed)
	}
	return t, nil
}
