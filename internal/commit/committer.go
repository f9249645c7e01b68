// Package commit promotes a finished workspace into production.
//
// A commit moves every manifest entry with one rename per file. The commit as
// a whole is not atomic: if a move fails partway the files already moved stay
// in production and the workspace stays on disk for recovery. Each move is
// recorded in workspace.json before it starts, and a retry skips only the
// recorded ones.
package commit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/fsutil"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// ConflictDetector reports production paths that changed since a workspace's
// baseline. targets are the production-root-relative paths about to be written.
type ConflictDetector interface {
	Detect(ctx context.Context, ws *domain.Workspace, targets ...string) ([]domain.Conflict, error)
}

// Options controls a single commit.
type Options struct {
	// Force commits even when conflicts are detected, overwriting the
	// out-of-band production changes.
	Force bool
}

// Result describes a successful commit.
type Result struct {
	Version        string            `json:"version"`
	CommittedPaths []string          `json:"committed_paths"`
	Conflicts      []domain.Conflict `json:"conflicts,omitempty"`
}

// Committer performs commits against one production root.
type Committer struct {
	store          workspace.Store
	detector       ConflictDetector
	productionRoot string
	categories     []constants.Category
	stages         StageCategories
	move           func(src, dst string) error
	logger         zerolog.Logger
}

// Option configures a Committer.
type Option func(*Committer)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Committer) { c.logger = l }
}

// WithCategories sets the category directories a workspace holds.
// It should match the categories the store creates.
func WithCategories(categories []constants.Category) Option {
	return func(c *Committer) {
		if len(categories) > 0 {
			c.categories = categories
		}
	}
}

// WithStageCategories sets which category each stage's output lands in.
func WithStageCategories(stages StageCategories) Option {
	return func(c *Committer) {
		if len(stages) > 0 {
			c.stages = stages
		}
	}
}

// WithMoveFunc replaces the per-file move. Used in tests to inject failures.
func WithMoveFunc(move func(src, dst string) error) Option {
	return func(c *Committer) {
		if move != nil {
			c.move = move
		}
	}
}

// New creates a Committer.
func New(store workspace.Store, detector ConflictDetector, productionRoot string, opts ...Option) *Committer {
	c := &Committer{
		store:          store,
		detector:       detector,
		productionRoot: productionRoot,
		categories:     constants.DefaultCategories(),
		stages:         DefaultStageCategories(),
		move:           fsutil.MoveFile,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit promotes ws into production.
//
// The workspace must be ready (stage2-complete is advanced to ready first).
// Conflicts abort the commit unless opts.Force is set. On success the
// workspace is marked committed and removed.
func (c *Committer) Commit(ctx context.Context, ws *domain.Workspace, opts Options) (*Result, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	current, err := c.store.Load(ctx, ws.Path)
	if err != nil {
		return nil, err
	}
	if !current.Status.IsCommittable() {
		return nil, fmt.Errorf("cannot commit '%s' in status %s: %w", current.Version, current.Status, sherrors.ErrInvalidStatus)
	}

	log := c.logger.With().
		Str("version", current.Version).
		Str("run_id", current.RunID).
		Logger()

	manifest, err := BuildManifest(current, c.productionRoot, c.categories, c.stages)
	if err != nil {
		return nil, err
	}
	pending, done, err := pendingMoves(manifest, current.Commit)
	if err != nil {
		return nil, err
	}
	if len(done) > 0 {
		log.Info().Int("already_committed", len(done)).Msg("resuming partial commit")
	}

	targets := make([]string, 0, len(pending))
	for _, entry := range pending {
		targets = append(targets, entry.Path)
	}
	conflicts, err := c.detector.Detect(ctx, current, targets...)
	if err != nil {
		return nil, fmt.Errorf("conflict detection failed for '%s': %w", current.Version, err)
	}
	// Paths an earlier attempt already moved no longer match the baseline.
	conflicts = slices.DeleteFunc(conflicts, func(cf domain.Conflict) bool {
		return slices.ContainsFunc(done, func(e domain.ManifestEntry) bool { return e.Path == cf.ProductionPath })
	})
	if len(conflicts) > 0 {
		if !opts.Force {
			log.Warn().Int("conflicts", len(conflicts)).Msg("commit refused: production changed since baseline")
			return nil, &ConflictError{Version: current.Version, Conflicts: conflicts}
		}
		for _, cf := range conflicts {
			log.Warn().
				Str("path", cf.ProductionPath).
				Str("recorded", cf.Recorded.String()).
				Str("current", cf.Current.String()).
				Msg("overwriting out-of-band production change")
		}
	}

	if current.Status == domain.StatusStage2Complete {
		current, err = c.store.UpdateStatus(ctx, current, domain.StatusReady)
		if err != nil {
			return nil, err
		}
	}

	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	// Once the first file moves the loop runs to the end or the first failure.
	// Each move is recorded as in flight before it starts so a retry can
	// tell it from a staged file that went missing.
	moved := make([]string, 0, len(manifest))
	committed := make([]string, 0, len(manifest))
	for _, entry := range done {
		moved = append(moved, entry.Path)
		committed = append(committed, entry.ProductionPath)
	}
	for _, entry := range pending {
		current, err = c.store.RecordCommitProgress(ctx, current, domain.CommitProgress{Moved: moved, Moving: entry.Path})
		if err == nil {
			err = c.move(entry.StagedPath, entry.ProductionPath)
		}
		if err != nil {
			cerr := &CommitError{
				Version:    ws.Version,
				Committed:  len(committed),
				Total:      len(manifest),
				FailedPath: entry.ProductionPath,
				Err:        err,
			}
			log.Error().Err(err).
				Int("committed", cerr.Committed).
				Int("total", cerr.Total).
				Str("path", entry.ProductionPath).
				Msg("partial commit: workspace left for recovery")
			return nil, cerr
		}
		moved = append(moved, entry.Path)
		committed = append(committed, entry.ProductionPath)
	}

	current, err = c.store.UpdateStatus(ctx, current, domain.StatusCommitted)
	if err != nil {
		return nil, fmt.Errorf("files committed but status could not be recorded: %w", err)
	}

	if err := c.store.Remove(ctx, current); err != nil {
		// Committed is terminal, so a leftover directory is not an orphan.
		log.Warn().Err(err).Str("path", current.Path).Msg("failed to remove committed workspace")
	}

	log.Info().Int("files", len(committed)).Bool("forced", opts.Force && len(conflicts) > 0).Msg("workspace committed")

	return &Result{Version: current.Version, CommittedPaths: committed, Conflicts: conflicts}, nil
}

// pendingMoves splits the manifest into entries still to move and entries an
// earlier, interrupted commit already moved. Only entries recorded in progress
// count as moved: every entry in progress.Moved, and the in-flight entry when
// its staged file is gone and its production file exists. Any other missing
// staged file fails the commit before anything moves.
func pendingMoves(manifest []domain.ManifestEntry, progress *domain.CommitProgress) (pending, done []domain.ManifestEntry, err error) {
	for _, entry := range manifest {
		inFlight := progress != nil && entry.Path == progress.Moving
		recorded := progress.Done(entry.Path) && !inFlight

		info, statErr := os.Lstat(entry.StagedPath)
		if statErr == nil {
			if recorded {
				return nil, nil, fmt.Errorf("%s was already committed but is staged again: %w", entry.Path, sherrors.ErrManifestInvalid)
			}
			if !info.Mode().IsRegular() {
				return nil, nil, fmt.Errorf("%s is not a regular file: %w", entry.StagedPath, sherrors.ErrManifestInvalid)
			}
			pending = append(pending, entry)
			continue
		}
		if !errors.Is(statErr, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to stat staged file %s: %w", entry.StagedPath, statErr)
		}

		if recorded {
			done = append(done, entry)
			continue
		}
		if inFlight {
			if _, prodErr := os.Lstat(entry.ProductionPath); prodErr == nil {
				done = append(done, entry)
				continue
			}
		}
		return nil, nil, fmt.Errorf("%s: %w", entry.StagedPath, sherrors.ErrStagedFileMissing)
	}
	return pending, done, nil
}
