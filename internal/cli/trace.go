package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mica/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	RunID string // show applications of one run
}

// TraceResult is the success payload of the trace command.
type TraceResult struct {
	Runs         []TraceRun         `json:"runs,omitempty"`
	Applications []TraceApplication `json:"applications,omitempty"`
}

// TraceRun is one run header row.
type TraceRun struct {
	ID          string `json:"id"`
	Module      string `json:"module"`
	Fingerprint string `json:"fingerprint"`
	Pass        string `json:"pass"`
	CreatedAt   string `json:"created_at"`
}

// TraceApplication is one pattern application row.
type TraceApplication struct {
	Seq     int    `json:"seq"`
	Pattern string `json:"pattern"`
	OpKind  string `json:"op_kind"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "%s  %s  %s  %s  %s\n", run.ID, run.Module, run.Pass, run.Fingerprint, run.CreatedAt)
	}
	for _, app := range r.Applications {
		fmt.Fprintf(&b, "%4d  %s  %s\n", app.Seq, app.Pattern, app.OpKind)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <trace.db>",
		Short: "Inspect a rewrite trace database",
		Long: `List the conversion runs recorded in a trace database, or, with
--run, the pattern applications of one run in application order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "show pattern applications for this run ID")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("trace database not found: %s", path), nil)
		return NewExitError(ExitCommandError, "trace database not found")
	}

	db, err := store.Open(path)
	if err != nil {
		formatter.Error(ErrCodeTraceDB, err.Error(), nil)
		return NewExitError(ExitCommandError, "opening trace database")
	}
	defer db.Close()

	ctx := cmd.Context()
	result := TraceResult{}

	if opts.RunID != "" {
		apps, err := db.ReadApplications(ctx, opts.RunID)
		if err != nil {
			formatter.Error(ErrCodeTraceDB, err.Error(), nil)
			return NewExitError(ExitCommandError, "reading applications")
		}
		for _, a := range apps {
			result.Applications = append(result.Applications, TraceApplication{
				Seq: a.Seq, Pattern: a.Pattern, OpKind: a.OpKind,
			})
		}
	} else {
		runs, err := db.ListRuns(ctx)
		if err != nil {
			formatter.Error(ErrCodeTraceDB, err.Error(), nil)
			return NewExitError(ExitCommandError, "reading runs")
		}
		for _, r := range runs {
			result.Runs = append(result.Runs, TraceRun{
				ID: r.ID, Module: r.ModuleName, Fingerprint: r.ModuleFingerprint,
				Pass: r.Pass, CreatedAt: r.CreatedAt,
			})
		}
	}

	return formatter.Success(result)
}
