// Package rollback discards staging workspaces.
package rollback

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/fsutil"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// Rollbacker removes workspaces.
type Rollbacker struct {
	store  workspace.Store
	logger zerolog.Logger
}

// New creates a Rollbacker backed by store.
func New(store workspace.Store, logger zerolog.Logger) *Rollbacker {
	return &Rollbacker{store: store, logger: logger}
}

// Rollback deletes the workspace root and everything staged in it,
// regardless of status. Rolling back an already-removed workspace succeeds.
// Production is never touched.
//
// ctx cancellation is ignored so a canceled stage can still be cleaned up.
func (r *Rollbacker) Rollback(ctx context.Context, ws *domain.Workspace, reason string) error {
	if ws == nil || ws.Path == "" {
		return fmt.Errorf("workspace path: %w", sherrors.ErrEmptyValue)
	}
	if !fsutil.IsWithin(r.store.Root(), ws.Path) || filepath.Clean(ws.Path) == filepath.Clean(r.store.Root()) {
		return fmt.Errorf("refusing to remove %s outside staging root %s: %w", ws.Path, r.store.Root(), sherrors.ErrPathTraversal)
	}

	existed := true
	if _, err := os.Stat(ws.Path); errors.Is(err, fs.ErrNotExist) {
		existed = false
	}

	if err := r.store.Remove(context.WithoutCancel(ctx), ws); err != nil {
		r.logger.Error().Err(err).
			Str("version", ws.Version).
			Str("run_id", ws.RunID).
			Str("path", ws.Path).
			Msg("rollback failed")
		return err
	}

	r.logger.Info().
		Str("version", ws.Version).
		Str("run_id", ws.RunID).
		Str("path", ws.Path).
		Str("status", ws.Status.String()).
		Str("reason", reason).
		Bool("existed", existed).
		Msg("workspace rolled back")

	return nil
}
