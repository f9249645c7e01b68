package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/tui"
)

// AddInitCommand adds the init command to the root command.
func AddInitCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <version>",
		Short: "Create a staging workspace and capture its baseline",
		Long: `Create the staging workspace for a target version without running any stage.

The workspace gets one output directory per category and a frozen baseline
of every production path the previous version produced. External tools can
then write into the printed directories and finish with 'stagehand commit'.

Examples:
  stagehand init v2.0.0
  stagehand init v2.0.0 --previous v1.4.0
  stagehand init v2.0.0 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.version = args[0]
			return runInit(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.previous, "previous", "", "previous version used as the baseline diff base")
	root.AddCommand(cmd)
}

type initOptions struct {
	version  string
	previous string
}

type initResponse struct {
	Success         bool              `json:"success"`
	Version         string            `json:"version"`
	PreviousVersion string            `json:"previous_version,omitempty"`
	RunID           string            `json:"run_id,omitempty"`
	WorkspacePath   string            `json:"workspace_path,omitempty"`
	Status          string            `json:"status,omitempty"`
	Dirs            map[string]string `json:"dirs,omitempty"`
	Error           string            `json:"error,omitempty"`
}

func runInit(ctx context.Context, w io.Writer, format string, flags *GlobalFlags, opts *initOptions) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	resp := initResponse{Version: opts.version, PreviousVersion: opts.previous}

	a, err := newApp(ctx, flags, appOptions{})
	if err != nil {
		return reportInit(w, format, resp, err)
	}

	res, err := a.orchestrator.Init(ctx, opts.version, optionalString(opts.previous))
	if err != nil {
		return reportInit(w, format, resp, err)
	}

	resp.Success = true
	resp.RunID = res.Workspace.RunID
	resp.WorkspacePath = res.Workspace.Path
	resp.Status = res.Workspace.Status.String()
	resp.Dirs = make(map[string]string, len(res.Dirs))
	for c, dir := range res.Dirs {
		resp.Dirs[c.String()] = dir
	}

	if format == OutputJSON {
		return writeJSON(w, resp)
	}

	out := tui.NewOutput(w, format)
	out.Success(fmt.Sprintf("Workspace %s created", opts.version))
	out.Info("Path: " + res.Workspace.Path)
	out.Table([]string{"CATEGORY", "DIRECTORY"}, dirRows(res.Dirs))
	return nil
}

func reportInit(w io.Writer, format string, resp initResponse, err error) error {
	if format == OutputJSON {
		resp.Error = err.Error()
		return failJSON(w, resp, err)
	}
	return err
}

// dirRows sorts category directories for display.
func dirRows(dirs map[constants.Category]string) [][]string {
	rows := make([][]string, 0, len(dirs))
	for c, dir := range dirs {
		rows = append(rows, []string{c.String(), dir})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

// optionalString maps "" to nil.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
