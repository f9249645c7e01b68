package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/recovery"
	"github.com/mrz1836/stagehand/internal/tui"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// AddRecoverCommand adds the recover command to the root command.
func AddRecoverCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &recoverOptions{}

	cmd := &cobra.Command{
		Use:   "recover <dir> <commit|rollback|inspect>",
		Short: "Resolve an orphaned workspace",
		Long: `Resolve a workspace left behind by an interrupted run.

<dir> is the workspace directory as listed by 'stagehand status', or just
its version when the workspace lives under the configured staging root.

Actions:
  inspect   report status, stage results and staged file counts (read-only)
  commit    promote the staged files; only allowed once both stages succeeded
  rollback  delete the workspace; always allowed, including corrupt ones

Examples:
  stagehand recover .stagehand/staging/v2.0.0 inspect --diff
  stagehand recover v2.0.0 commit --force --yes
  stagehand recover v2.0.0 rollback -o json --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dir = args[0]
			opts.action = constants.RecoveryAction(args[1])
			return runRecover(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "commit over production paths that changed since the baseline")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "include staged-versus-production diffs when inspecting")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	root.AddCommand(cmd)
}

type recoverOptions struct {
	dir    string
	action constants.RecoveryAction
	force  bool
	diff   bool
	yes    bool
}

type recoverResponse struct {
	Success bool `json:"success"`
	*recovery.Outcome

	Conflicts []domain.Conflict `json:"conflicts,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func runRecover(ctx context.Context, w io.Writer, format string, flags *GlobalFlags, opts *recoverOptions) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	resp := recoverResponse{Outcome: &recovery.Outcome{Action: opts.action, Path: opts.dir}}
	fail := func(err error) error {
		var conflictErr *commit.ConflictError
		if errors.As(err, &conflictErr) {
			resp.Conflicts = conflictErr.Conflicts
		}
		if format == OutputJSON {
			resp.Error = err.Error()
			return failJSON(w, resp, err)
		}
		printConflicts(tui.NewOutput(os.Stderr, format), resp.Conflicts)
		return err
	}

	if !slices.Contains(constants.ValidRecoveryActions(), opts.action) {
		return fail(sherrors.NewExitCode2Error(fmt.Errorf("action %q must be one of %v: %w",
			opts.action, constants.ValidRecoveryActions(), sherrors.ErrInvalidArgument)))
	}

	a, err := newApp(ctx, flags, appOptions{})
	if err != nil {
		return fail(err)
	}

	path := resolveWorkspaceDir(a.store, opts.dir)
	resp.Path = path

	if opts.action != constants.RecoveryActionInspect {
		title := fmt.Sprintf("%s the workspace at %s?", actionVerb(opts.action), path)
		detail := "Staged files will be moved into " + a.productionRoot + "."
		if opts.action == constants.RecoveryActionRollback {
			detail = "Everything staged in it will be deleted. Production is not touched."
		}
		if err := confirm(format, opts.yes, title, detail); err != nil {
			return fail(err)
		}
	}

	outcome, err := a.recovery.Recover(ctx, path, opts.action, recovery.RecoverOptions{Force: opts.force, Diff: opts.diff})
	if err != nil {
		return fail(err)
	}
	resp.Success = true
	resp.Outcome = outcome

	if format == OutputJSON {
		return writeJSON(w, resp)
	}

	out := tui.NewOutput(w, format)
	switch opts.action {
	case constants.RecoveryActionInspect:
		printInspection(out, outcome.Inspection)
	case constants.RecoveryActionCommit:
		printCommitResult(out, outcome.Commit)
	case constants.RecoveryActionRollback:
		out.Success(fmt.Sprintf("Workspace %s rolled back; production is unchanged", outcome.Path))
	}
	return nil
}

// resolveWorkspaceDir accepts either a directory or a bare version. A bare
// version that is not an existing path maps into the staging root.
func resolveWorkspaceDir(store *workspace.FileStore, dir string) string {
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	if workspace.ValidateVersion(dir) == nil {
		return store.PathFor(dir)
	}
	return dir
}

func actionVerb(action constants.RecoveryAction) string {
	switch action {
	case constants.RecoveryActionCommit:
		return "Commit"
	case constants.RecoveryActionRollback:
		return "Roll back"
	default:
		return "Inspect"
	}
}

// printInspection renders an inspect report.
func printInspection(out tui.Output, report *recovery.Inspection) {
	out.Info(fmt.Sprintf("Workspace %s  %s", report.Version, tui.FormatStatus(report.Status)))
	out.Table([]string{"FIELD", "VALUE"}, [][]string{
		{"path", report.Path},
		{"previous", valueOr(report.PreviousVersion, "-")},
		{"run id", report.RunID},
		{"started", formatStarted(report.StartTime)},
		{"files", formatCounts(report.FileCounts)},
	})

	stages := make([]int, 0, len(report.StageResults))
	for s := range report.StageResults {
		stages = append(stages, s)
	}
	sort.Ints(stages)
	for _, s := range stages {
		r := report.StageResults[s]
		line := fmt.Sprintf("Stage %d: %d file(s) in %dms", s, len(r.FilesWritten), r.DurationMs)
		if r.Success {
			out.Success(line)
		} else {
			out.Warning(line + ": " + r.Error)
		}
	}

	for _, fd := range report.Diff {
		printFileDiff(out, fd)
	}
}

func printFileDiff(out tui.Output, fd recovery.FileDiff) {
	header := fd.ProductionPath
	switch {
	case fd.New:
		header += " (new)"
	case fd.Binary:
		header += " (binary, not shown)"
	}
	out.Info(header)
	if fd.Binary {
		return
	}

	rows := make([][]string, 0, len(fd.Lines))
	for _, l := range fd.Lines {
		marker := " "
		switch l.Type {
		case recovery.LineAdded:
			marker = "+"
		case recovery.LineRemoved:
			marker = "-"
		}
		rows = append(rows, []string{lineNumber(l.OldLine), lineNumber(l.NewLine), marker + " " + l.Text})
	}
	out.Table([]string{"OLD", "NEW", "LINE"}, rows)
	if fd.Truncated {
		out.Warning("diff truncated")
	}
}

func lineNumber(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
