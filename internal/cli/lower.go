package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mica/internal/ir"
	"github.com/roach88/mica/internal/lower"
	"github.com/roach88/mica/internal/rewrite"
	"github.com/roach88/mica/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Output  string // output file path
	TraceDB string // optional trace database path
}

// LowerResult is the success payload of the lower command.
type LowerResult struct {
	Module       string `json:"module"`
	Fingerprint  string `json:"fingerprint"`
	RunID        string `json:"run_id"`
	Applications int    `json:"applications"`
	Text         string `json:"text"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <module.yaml>",
		Short: "Run the legalize-to-arithmetic pass over a module fixture",
		Long: `Load a YAML module fixture, legalize rng.get_and_update_state into
arithmetic and memory ops, and print the converted module.

With --trace-db, every pattern application is recorded in a SQLite
trace database for later inspection with 'mica trace'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the converted module to a file")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record pattern applications to this SQLite database")

	return cmd
}

func runLower(opts *LowerOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := loadVerified(formatter, path)
	if err != nil {
		return err
	}

	fingerprint := ir.Fingerprint(m)
	formatter.VerboseLog("Loaded module %s (fingerprint %s)", m.Name, fingerprint)

	var convOpts []rewrite.Option
	if opts.TraceDB != "" {
		db, err := store.Open(opts.TraceDB)
		if err != nil {
			formatter.Error(ErrCodeTraceDB, err.Error(), nil)
			return NewExitError(ExitCommandError, "opening trace database")
		}
		defer db.Close()
		convOpts = append(convOpts,
			rewrite.WithRecorder(store.NewRecorder(db, m.Name, fingerprint, lower.PassName)))
	}

	result, err := lower.LegalizeToArithmetic(m, convOpts...)
	if err != nil {
		formatter.Error(ErrCodeLower, err.Error(), nil)
		return NewExitError(ExitFailure, "conversion failed")
	}
	formatter.VerboseLog("Applied %d pattern(s) in run %s", result.Applications, result.RunID)

	text := ir.Print(m)
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			formatter.Error(ErrCodeWrite, fmt.Sprintf("writing %s: %v", opts.Output, err), nil)
			return NewExitError(ExitCommandError, "writing output file")
		}
	}

	if opts.Format == "json" {
		return formatter.Success(LowerResult{
			Module:       m.Name,
			Fingerprint:  fingerprint,
			RunID:        result.RunID,
			Applications: result.Applications,
			Text:         text,
		})
	}
	return formatter.Text(text)
}

// loadVerified loads a fixture and rejects modules that fail structural
// verification, reporting through the formatter.
func loadVerified(formatter *OutputFormatter, path string) (*ir.Module, error) {
	m, err := LoadModule(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			formatter.Error(loadErr.Code, loadErr.Message, nil)
		} else {
			formatter.Error(ErrCodeGeneric, err.Error(), nil)
		}
		return nil, NewExitError(ExitCommandError, "loading module fixture")
	}

	if errs := ir.Verify(m); len(errs) > 0 {
		details := make([]string, len(errs))
		for i, e := range errs {
			details[i] = e.Error()
		}
		formatter.Error(ErrCodeVerify, fmt.Sprintf("module %s failed verification", m.Name), details)
		return nil, NewExitError(ExitFailure, "module failed verification")
	}

	return m, nil
}
