// Package recovery finds workspaces left behind by crashed or interrupted
// runs and lets an operator commit, roll back, or inspect them.
//
// An orphan is any workspace directory under the staging root that is not
// committed, including directories whose metadata cannot be read.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/fsutil"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// Committer promotes a workspace into production.
type Committer interface {
	Commit(ctx context.Context, ws *domain.Workspace, opts commit.Options) (*commit.Result, error)
}

// Rollbacker discards a workspace.
type Rollbacker interface {
	Rollback(ctx context.Context, ws *domain.Workspace, reason string) error
}

// Orphan is a workspace found by DetectOrphans.
type Orphan struct {
	Path            string                     `json:"path"`
	Version         string                     `json:"version"`
	PreviousVersion string                     `json:"previous_version,omitempty"`
	Status          constants.WorkspaceStatus  `json:"status"`
	StartTime       time.Time                  `json:"start_time,omitzero"`
	FileCounts      map[constants.Category]int `json:"file_counts"`
	Error           string                     `json:"error,omitempty"`
}

// Corrupt reports whether the orphan's metadata could not be read.
func (o Orphan) Corrupt() bool {
	return o.Status == constants.WorkspaceStatusCorrupt
}

// Inspection is a read-only report on one workspace.
type Inspection struct {
	Version         string                     `json:"version"`
	PreviousVersion string                     `json:"previous_version,omitempty"`
	RunID           string                     `json:"run_id"`
	Path            string                     `json:"path"`
	Status          constants.WorkspaceStatus  `json:"status"`
	StartTime       time.Time                  `json:"start_time"`
	FileCounts      map[constants.Category]int `json:"file_counts"`
	StageResults    map[int]domain.StageResult `json:"stage_results"`
	Commit          *domain.CommitProgress     `json:"commit,omitempty"`
	Diff            []FileDiff                 `json:"diff,omitempty"`
}

// InspectOptions controls Inspect.
type InspectOptions struct {
	// Diff includes a staged-versus-production diff of every staged file.
	Diff bool
}

// RecoverOptions controls Recover.
type RecoverOptions struct {
	// Force commits over detected conflicts.
	Force bool

	// Diff includes file diffs in an inspect report.
	Diff bool
}

// Outcome is the result of a Recover call. Exactly one of Commit or
// Inspection is set for the commit and inspect actions.
type Outcome struct {
	Action     constants.RecoveryAction `json:"action"`
	Version    string                   `json:"version"`
	Path       string                   `json:"path"`
	Commit     *commit.Result           `json:"commit,omitempty"`
	Inspection *Inspection              `json:"inspection,omitempty"`
}

// Service implements orphan detection and recovery.
type Service struct {
	store          workspace.Store
	committer      Committer
	rollbacker     Rollbacker
	productionRoot string
	categories     []constants.Category
	scope          constants.OrphanScope
	logger         zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithScope sets which orphans block a new run.
func WithScope(scope constants.OrphanScope) Option {
	return func(s *Service) {
		if scope != "" {
			s.scope = scope
		}
	}
}

// WithCategories sets the category directories counted and diffed.
func WithCategories(categories []constants.Category) Option {
	return func(s *Service) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// NewService creates a recovery Service.
func NewService(store workspace.Store, committer Committer, rollbacker Rollbacker, productionRoot string, opts ...Option) *Service {
	s := &Service{
		store:          store,
		committer:      committer,
		rollbacker:     rollbacker,
		productionRoot: productionRoot,
		categories:     constants.DefaultCategories(),
		scope:          constants.OrphanScopeGlobal,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DetectOrphans lists every non-committed workspace under the staging root,
// sorted by version.
func (s *Service) DetectOrphans(ctx context.Context) ([]Orphan, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	orphans := make([]Orphan, 0, len(entries))
	for _, e := range entries {
		if e.Err != nil {
			orphans = append(orphans, Orphan{
				Path:       e.Path,
				Version:    filepath.Base(e.Path),
				Status:     constants.WorkspaceStatusCorrupt,
				FileCounts: s.fileCounts(e.Path),
				Error:      e.Err.Error(),
			})
			continue
		}
		ws := e.Workspace
		if ws.Status.IsTerminal() {
			continue
		}
		orphans = append(orphans, Orphan{
			Path:            ws.Path,
			Version:         ws.Version,
			PreviousVersion: ws.PreviousVersionString(),
			Status:          ws.Status,
			StartTime:       ws.StartTime,
			FileCounts:      s.fileCounts(ws.Path),
		})
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Version < orphans[j].Version })
	return orphans, nil
}

// BlockingOrphans returns the orphans that prevent a new run for version
// under the configured scope.
func (s *Service) BlockingOrphans(ctx context.Context, version string) ([]Orphan, error) {
	orphans, err := s.DetectOrphans(ctx)
	if err != nil {
		return nil, err
	}
	if s.scope != constants.OrphanScopeVersion {
		return orphans, nil
	}

	blocking := make([]Orphan, 0, len(orphans))
	for _, o := range orphans {
		if o.Version == version {
			blocking = append(blocking, o)
		}
	}
	return blocking, nil
}

// Inspect reports on the workspace at path without changing anything.
func (s *Service) Inspect(ctx context.Context, path string, opts InspectOptions) (*Inspection, error) {
	ws, err := s.load(ctx, path, constants.RecoveryActionInspect)
	if err != nil {
		return nil, err
	}

	report := &Inspection{
		Version:         ws.Version,
		PreviousVersion: ws.PreviousVersionString(),
		RunID:           ws.RunID,
		Path:            ws.Path,
		Status:          ws.Status,
		StartTime:       ws.StartTime,
		FileCounts:      s.fileCounts(ws.Path),
		StageResults:    ws.StageResults,
		Commit:          ws.Commit,
	}

	if opts.Diff {
		report.Diff, err = s.diff(ctx, ws)
		if err != nil {
			return nil, fmt.Errorf("failed to diff '%s': %w", ws.Version, err)
		}
	}

	return report, nil
}

// Recover applies action to the orphan at path.
func (s *Service) Recover(ctx context.Context, path string, action constants.RecoveryAction, opts RecoverOptions) (*Outcome, error) {
	switch action {
	case constants.RecoveryActionInspect:
		report, err := s.Inspect(ctx, path, InspectOptions{Diff: opts.Diff})
		if err != nil {
			return nil, err
		}
		return &Outcome{Action: action, Version: report.Version, Path: report.Path, Inspection: report}, nil

	case constants.RecoveryActionCommit:
		return s.recoverCommit(ctx, path, opts)

	case constants.RecoveryActionRollback:
		return s.recoverRollback(ctx, path)

	default:
		return nil, &RecoveryError{Path: path, Action: action, Err: fmt.Errorf("unknown action %q: %w", action, sherrors.ErrInvalidArgument)}
	}
}

func (s *Service) recoverCommit(ctx context.Context, path string, opts RecoverOptions) (*Outcome, error) {
	ws, err := s.load(ctx, path, constants.RecoveryActionCommit)
	if err != nil {
		return nil, err
	}
	if !ws.Status.IsCommittable() {
		return nil, &RecoveryError{
			Path:   ws.Path,
			Action: constants.RecoveryActionCommit,
			Err:    fmt.Errorf("status %s has unfinished stages: %w", ws.Status, sherrors.ErrInvalidStatus),
		}
	}

	s.logger.Info().Str("version", ws.Version).Str("run_id", ws.RunID).Bool("force", opts.Force).Msg("recovering orphan by commit")

	result, err := s.committer.Commit(ctx, ws, commit.Options{Force: opts.Force})
	if err != nil {
		return nil, err
	}
	return &Outcome{Action: constants.RecoveryActionCommit, Version: ws.Version, Path: ws.Path, Commit: result}, nil
}

func (s *Service) recoverRollback(ctx context.Context, path string) (*Outcome, error) {
	ws, err := s.load(ctx, path, constants.RecoveryActionRollback)
	if err != nil {
		// A corrupt workspace can only be discarded.
		if !errors.Is(err, sherrors.ErrWorkspaceCorrupted) {
			return nil, err
		}
		abs, _ := filepath.Abs(path)
		ws = &domain.Workspace{Version: filepath.Base(abs), Path: abs, Status: constants.WorkspaceStatusCorrupt}
	}

	if err := s.rollbacker.Rollback(ctx, ws, "recovered orphan"); err != nil {
		return nil, err
	}
	return &Outcome{Action: constants.RecoveryActionRollback, Version: ws.Version, Path: ws.Path}, nil
}

// load resolves path inside the staging root and loads it, wrapping every
// refusal in a RecoveryError.
func (s *Service) load(ctx context.Context, path string, action constants.RecoveryAction) (*domain.Workspace, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &RecoveryError{Path: path, Action: action, Err: err}
	}
	root := filepath.Clean(s.store.Root())
	if abs == root || !fsutil.IsWithin(root, abs) {
		return nil, &RecoveryError{
			Path:   abs,
			Action: action,
			Err:    fmt.Errorf("not inside staging root %s: %w", root, sherrors.ErrPathTraversal),
		}
	}

	ws, err := s.store.Load(ctx, abs)
	if err != nil {
		return nil, &RecoveryError{Path: abs, Action: action, Err: err}
	}
	return ws, nil
}

// fileCounts counts staged files per category. Unreadable directories count as zero.
func (s *Service) fileCounts(wsPath string) map[constants.Category]int {
	counts := make(map[constants.Category]int, len(s.categories))
	for _, c := range s.categories {
		files, err := fsutil.ListFiles(filepath.Join(wsPath, c.String()))
		if err != nil {
			s.logger.Debug().Err(err).Str("path", wsPath).Str("category", c.String()).Msg("failed to count staged files")
		}
		counts[c] = len(files)
	}
	return counts
}

// diff compares every file currently staged in ws with production.
func (s *Service) diff(ctx context.Context, ws *domain.Workspace) ([]FileDiff, error) {
	var diffs []FileDiff
	for _, c := range s.categories {
		files, err := fsutil.ListFiles(ws.CategoryDir(c))
		if err != nil {
			return nil, err
		}
		for _, rel := range files {
			if err := ctxutil.Canceled(ctx); err != nil {
				return nil, err
			}
			production, err := fsutil.SafeJoin(s.productionRoot, path.Join(c.String(), rel))
			if err != nil {
				return nil, err
			}
			staged := filepath.Join(ws.CategoryDir(c), filepath.FromSlash(rel))
			fd, err := diffFile(c, staged, production, constants.MaxDiffLines)
			if err != nil {
				return nil, err
			}
			diffs = append(diffs, fd)
		}
	}
	return diffs, nil
}
