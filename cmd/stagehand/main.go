// Package main provides the entry point for the stagehand CLI.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/mrz1836/stagehand/internal/cli"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/tui"
)

// Set at build time via -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err != nil && !errors.Is(err, sherrors.ErrJSONErrorOutput) {
		tui.NewTTYOutput(os.Stderr).Error(err)
	}
	os.Exit(cli.ExitCodeForError(err))
}
