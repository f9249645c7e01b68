package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	"github.com/mrz1836/stagehand/internal/tui"
)

// AddCommitCommand adds the commit command to the root command.
func AddCommitCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &commitOptions{}

	cmd := &cobra.Command{
		Use:   "commit <version>",
		Short: "Promote a ready workspace into production",
		Long: `Move every file a ready workspace staged into the production tree and
remove the workspace.

Before anything moves, each production path recorded in the baseline is
fingerprinted again. If any changed, the commit is refused and production is
untouched; --force commits anyway and overwrites those changes.

A commit that stops partway keeps the workspace. Fix the cause and run the
same command again; files already moved are skipped.

Examples:
  stagehand commit v2.0.0
  stagehand commit v2.0.0 --force
  stagehand commit v2.0.0 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.version = args[0]
			return runCommit(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite production paths that changed since the baseline")
	root.AddCommand(cmd)
}

type commitOptions struct {
	version string
	force   bool
}

type commitResponse struct {
	Success bool `json:"success"`
	*commit.Result

	Committed  int    `json:"committed"`
	Total      int    `json:"total"`
	FailedPath string `json:"failed_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runCommit(ctx context.Context, w io.Writer, format string, flags *GlobalFlags, opts *commitOptions) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	a, err := newApp(ctx, flags, appOptions{})
	if err != nil {
		return reportCommit(w, format, opts.version, err)
	}

	res, err := a.orchestrator.Commit(ctx, opts.version, opts.force)
	if err != nil {
		return reportCommit(w, format, opts.version, err)
	}

	if format == OutputJSON {
		n := len(res.CommittedPaths)
		return writeJSON(w, commitResponse{Success: true, Result: res, Committed: n, Total: n})
	}

	printCommitResult(tui.NewOutput(w, format), res)
	return nil
}

func reportCommit(w io.Writer, format, version string, err error) error {
	resp := commitResponse{Result: &commit.Result{Version: version}, Error: err.Error()}

	var conflictErr *commit.ConflictError
	if errors.As(err, &conflictErr) {
		resp.Conflicts = conflictErr.Conflicts
	}
	var partial *commit.CommitError
	if errors.As(err, &partial) {
		resp.Committed = partial.Committed
		resp.Total = partial.Total
		resp.FailedPath = partial.FailedPath
	}

	if format == OutputJSON {
		return failJSON(w, resp, err)
	}

	printConflicts(tui.NewOutput(os.Stderr, format), resp.Conflicts)
	return err
}

// printCommitResult reports a finished commit, including forced conflicts.
func printCommitResult(out tui.Output, res *commit.Result) {
	if len(res.Conflicts) > 0 {
		out.Warning(fmt.Sprintf("Overwrote %d production path(s) changed since the baseline", len(res.Conflicts)))
		printConflicts(out, res.Conflicts)
	}
	out.Success(fmt.Sprintf("Committed %s: %d file(s) promoted to production", res.Version, len(res.CommittedPaths)))
}

// printConflicts lists each drifted production path with its fingerprints.
func printConflicts(out tui.Output, conflicts []domain.Conflict) {
	if len(conflicts) == 0 {
		return
	}
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		detail := describeFingerprint(c.Recorded) + " → " + describeFingerprint(c.Current)
		if c.Reason != "" {
			detail = c.Reason
		}
		rows = append(rows, []string{c.ProductionPath, detail})
	}
	out.Table([]string{"PRODUCTION PATH", "CHANGE"}, rows)
}

func describeFingerprint(fp domain.Fingerprint) string {
	if !fp.Exists {
		return "absent"
	}
	const shortHash = 19 // "blake3:" plus 12 hex digits
	if len(fp.Hash) > shortHash {
		return fp.Hash[:shortHash]
	}
	return fp.Hash
}
