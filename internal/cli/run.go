package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	"github.com/mrz1836/stagehand/internal/pipeline"
	"github.com/mrz1836/stagehand/internal/recovery"
	"github.com/mrz1836/stagehand/internal/signal"
	"github.com/mrz1836/stagehand/internal/tui"
)

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <version>",
		Short: "Run both pipeline stages into a new staging workspace",
		Long: `Create a staging workspace for the target version and run the configured
stage commands into it, in order. Production is never touched by a run.

If either stage fails, or the run is interrupted with Ctrl+C, the whole
workspace is rolled back and production is unchanged. On success the
workspace is ready; commit it with 'stagehand commit' or pass --commit.

Each stage command runs with sh -c inside its category directory and sees
STAGEHAND_OUTPUT_DIR, STAGEHAND_VERSION, STAGEHAND_PREVIOUS_VERSION and
STAGEHAND_STAGE in its environment.

Examples:
  stagehand run v2.0.0 --previous v1.4.0
  stagehand run v2.0.0 --previous v1.4.0 --commit
  stagehand run v2.0.0 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.version = args[0]
			return runRun(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.previous, "previous", "", "previous version used as the baseline diff base")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "commit the workspace when both stages succeed")
	cmd.Flags().BoolVar(&opts.force, "force", false, "with --commit, overwrite production paths that changed since the baseline")
	root.AddCommand(cmd)
}

type runOptions struct {
	version  string
	previous string
	commit   bool
	force    bool
}

type runResponse struct {
	*pipeline.Result

	Commit    *commit.Result    `json:"commit,omitempty"`
	Conflicts []domain.Conflict `json:"conflicts,omitempty"`
	Orphans   []recovery.Orphan `json:"orphans,omitempty"`
}

func runRun(ctx context.Context, w io.Writer, format string, flags *GlobalFlags, opts *runOptions) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	sig := signal.NewHandler(ctx)
	defer sig.Stop()
	ctx = sig.Context()

	resp := runResponse{Result: &pipeline.Result{
		Version:      opts.version,
		StageResults: map[int]domain.StageResult{},
	}}

	var live io.Writer
	if format != OutputJSON && !flags.Quiet {
		live = os.Stderr
	}

	a, err := newApp(ctx, flags, appOptions{liveOutput: live})
	if err == nil {
		err = requireStageCommands(a.cfg)
	}
	if err != nil {
		return reportRun(w, format, resp, err)
	}

	result, runErr := a.orchestrator.Run(ctx, opts.version, optionalString(opts.previous))
	if result != nil {
		resp.Result = result
	}
	if runErr != nil {
		if reason := sig.Reason(); reason != "" {
			a.logger.Warn().Str("version", opts.version).Str("reason", reason).Msg("run interrupted")
		}
		return reportRun(w, format, resp, runErr)
	}

	if opts.commit {
		cres, err := a.orchestrator.Commit(ctx, opts.version, opts.force)
		resp.Commit = cres
		if err != nil {
			resp.Success = false
			resp.Error = err.Error()
			return reportRun(w, format, resp, err)
		}
		resp.Status = domain.StatusCommitted
	}

	if format == OutputJSON {
		return writeJSON(w, resp)
	}

	out := tui.NewOutput(w, format)
	printStageResults(out, resp.StageResults)
	if resp.Commit != nil {
		printCommitResult(out, resp.Commit)
		return nil
	}
	out.Success(fmt.Sprintf("Workspace %s is ready", opts.version))
	out.Info(fmt.Sprintf("Commit with 'stagehand commit %s' or discard with 'stagehand rollback %s'", opts.version, opts.version))
	return nil
}

func reportRun(w io.Writer, format string, resp runResponse, err error) error {
	var conflictErr *commit.ConflictError
	if errors.As(err, &conflictErr) {
		resp.Conflicts = conflictErr.Conflicts
	}
	var orphanErr *pipeline.OrphanBlockingError
	if errors.As(err, &orphanErr) {
		resp.Orphans = orphanErr.Orphans
	}

	if format == OutputJSON {
		resp.Success = false
		resp.Error = err.Error()
		return failJSON(w, resp, err)
	}

	out := tui.NewOutput(os.Stderr, format)
	printStageResults(out, resp.StageResults)
	if resp.RolledBack {
		out.Warning("Workspace rolled back; production is unchanged")
	}
	printConflicts(out, resp.Conflicts)
	printOrphans(out, resp.Orphans)
	return err
}

// printStageResults shows one line per recorded stage.
func printStageResults(out tui.Output, results map[int]domain.StageResult) {
	stages := make([]int, 0, len(results))
	for s := range results {
		stages = append(stages, s)
	}
	sort.Ints(stages)

	for _, s := range stages {
		r := results[s]
		if r.Success {
			out.Success(fmt.Sprintf("Stage %d wrote %d file(s) in %dms", s, len(r.FilesWritten), r.DurationMs))
		} else {
			out.Warning(fmt.Sprintf("Stage %d failed after %dms: %s", s, r.DurationMs, r.Error))
		}
	}
}
