package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/tui"
)

// defaultRollbackReason is logged when --reason is not given.
const defaultRollbackReason = "manual rollback"

// AddRollbackCommand adds the rollback command to the root command.
func AddRollbackCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &rollbackOptions{}

	cmd := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Discard a staging workspace",
		Long: `Delete the staging workspace for a version and everything staged in it.
Production is never touched. Rolling back a workspace that does not exist
succeeds, so the command is safe to repeat.

Examples:
  stagehand rollback v2.0.0
  stagehand rollback v2.0.0 --reason "bad template" --yes
  stagehand rollback v2.0.0 -o json --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.version = args[0]
			return runRollback(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.reason, "reason", defaultRollbackReason, "reason recorded in the log")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	root.AddCommand(cmd)
}

type rollbackOptions struct {
	version string
	reason  string
	yes     bool
}

type rollbackResponse struct {
	Success bool   `json:"success"`
	Version string `json:"version"`
	Reason  string `json:"reason"`
	Error   string `json:"error,omitempty"`
}

func runRollback(ctx context.Context, w io.Writer, format string, flags *GlobalFlags, opts *rollbackOptions) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	resp := rollbackResponse{Version: opts.version, Reason: opts.reason}
	fail := func(err error) error {
		if format == OutputJSON {
			resp.Error = err.Error()
			return failJSON(w, resp, err)
		}
		return err
	}

	a, err := newApp(ctx, flags, appOptions{})
	if err != nil {
		return fail(err)
	}

	if err := confirm(format, opts.yes,
		fmt.Sprintf("Roll back workspace %s?", opts.version),
		"Everything staged in "+a.store.PathFor(opts.version)+" will be deleted."); err != nil {
		return fail(err)
	}

	if err := a.orchestrator.Rollback(ctx, opts.version, opts.reason); err != nil {
		return fail(err)
	}

	resp.Success = true
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	tui.NewOutput(w, format).Success(fmt.Sprintf("Workspace %s rolled back; production is unchanged", opts.version))
	return nil
}
