package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mica/internal/interp"
	"github.com/roach88/mica/internal/ir"
	"github.com/roach88/mica/internal/lower"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Entry string // entry function name
}

// RunResult is the success payload of the run command.
type RunResult struct {
	Module  string      `json:"module"`
	Entry   string      `json:"entry"`
	Results []RunTensor `json:"results"`
	Counter string      `json:"counter,omitempty"`
}

// RunTensor is one evaluated result tensor.
type RunTensor struct {
	Type  string   `json:"type"`
	Elems []string `json:"elems"`
}

func (r RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s, entry %s\n", r.Module, r.Entry)
	for i, t := range r.Results {
		fmt.Fprintf(&b, "result %d : %s = [%s]\n", i, t.Type, strings.Join(t.Elems, ", "))
	}
	if r.Counter != "" {
		fmt.Fprintf(&b, "%s = %s", lower.CounterSymbol, r.Counter)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <module.yaml>",
		Short: "Lower a module fixture and execute its entry function",
		Long: `Load a YAML module fixture, legalize it, then interpret the entry
function and print the returned tensors and the final counter state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entry, "entry", "main", "entry function to execute")

	return cmd
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
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

	if _, err := lower.LegalizeToArithmetic(m); err != nil {
		formatter.Error(ErrCodeLower, err.Error(), nil)
		return NewExitError(ExitFailure, "conversion failed")
	}

	mach := interp.New(m)
	tensors, err := mach.Run(opts.Entry)
	if err != nil {
		formatter.Error(ErrCodeRun, err.Error(), nil)
		return NewExitError(ExitFailure, "interpretation failed")
	}

	result := RunResult{Module: m.Name, Entry: opts.Entry}
	for _, t := range tensors {
		rt := RunTensor{Type: t.Type.String()}
		for _, e := range t.Elems {
			rt.Elems = append(rt.Elems, ir.FormatWord(e))
		}
		result.Results = append(result.Results, rt)
	}
	if counter, ok := mach.GlobalValue(lower.CounterSymbol); ok {
		result.Counter = ir.FormatWord(counter)
	}

	return formatter.Success(result)
}
