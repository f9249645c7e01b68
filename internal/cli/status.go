package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/recovery"
	"github.com/mrz1836/stagehand/internal/tui"
)

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List unresolved staging workspaces",
		Long: `List every workspace under the staging root that has not been committed.

Any workspace listed here blocks new runs (or, with recovery.orphan_scope set
to "version", blocks runs for the same version). Resolve each one with
'stagehand recover <dir> <commit|rollback|inspect>'.

Examples:
  stagehand status
  stagehand status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags)
		},
	}
	root.AddCommand(cmd)
}

type statusResponse struct {
	Success     bool              `json:"success"`
	StagingRoot string            `json:"staging_root"`
	Workspaces  []recovery.Orphan `json:"workspaces"`
	Error       string            `json:"error,omitempty"`
}

func runStatus(ctx context.Context, w io.Writer, format string, flags *GlobalFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	resp := statusResponse{Workspaces: []recovery.Orphan{}}
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
	resp.StagingRoot = a.store.Root()

	orphans, err := a.recovery.DetectOrphans(ctx)
	if err != nil {
		return fail(err)
	}
	resp.Success = true
	resp.Workspaces = orphans

	if format == OutputJSON {
		return writeJSON(w, resp)
	}

	out := tui.NewOutput(w, format)
	if len(orphans) == 0 {
		out.Success("No unresolved workspaces in " + resp.StagingRoot)
		return nil
	}

	printOrphans(out, orphans)
	if !flags.Quiet {
		out.Info("Resolve with 'stagehand recover <dir> <commit|rollback|inspect>'")
	}
	return nil
}

// printOrphans renders orphans as a table.
func printOrphans(out tui.Output, orphans []recovery.Orphan) {
	if len(orphans) == 0 {
		return
	}
	out.Warning(fmt.Sprintf("%d unresolved workspace(s)", len(orphans)))

	rows := make([][]string, 0, len(orphans))
	for _, o := range orphans {
		version := o.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{
			version,
			tui.FormatStatus(o.Status),
			valueOr(o.PreviousVersion, "-"),
			formatStarted(o.StartTime),
			formatCounts(o.FileCounts),
			o.Path,
		})
	}
	out.Table([]string{"VERSION", "STATUS", "PREVIOUS", "STARTED", "FILES", "PATH"}, rows)
}

func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// formatCounts renders category counts as "scripts=2 commands=1", skipping zeros.
func formatCounts(counts map[constants.Category]int) string {
	parts := make([]string, 0, len(counts))
	for c, n := range counts {
		if n > 0 {
			parts = append(parts, c.String()+"="+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
