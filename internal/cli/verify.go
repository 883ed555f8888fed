package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mica/internal/ir"
)

// VerifyResult is the success payload of the verify command.
type VerifyResult struct {
	Module      string `json:"module"`
	Fingerprint string `json:"fingerprint"`
	Ops         int    `json:"ops"`
}

func (r VerifyResult) String() string {
	return fmt.Sprintf("module %s: %d ops, fingerprint %s", r.Module, r.Ops, r.Fingerprint)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <module.yaml>",
		Short: "Verify a module fixture without converting it",
		Long: `Load a YAML module fixture, run schema validation and structural
verification, and report the module's fingerprint.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			m, err := loadVerified(formatter, args[0])
			if err != nil {
				return err
			}

			return formatter.Success(VerifyResult{
				Module:      m.Name,
				Fingerprint: ir.Fingerprint(m),
				Ops:         len(m.Ops()),
			})
		},
	}

	return cmd
}
