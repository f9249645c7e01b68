// Package workspace provides persistence for staging workspaces.
//
// A workspace is a directory under the staging root named after its target
// version. Its workspace.json document is the single source of truth for the
// workspace's existence and status: every operation that changes state
// re-reads the document, applies the change, and writes it back atomically
// before returning, so no decision is ever held only in memory.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/clock"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/flock"
	"github.com/mrz1836/stagehand/internal/fsutil"
)

// Store defines the workspace persistence operations.
type Store interface {
	// Create makes a new workspace for version. The workspace root is created
	// with a single exclusive mkdir; if it already exists Create returns
	// ErrWorkspaceExists. This is the only exclusivity mechanism.
	Create(ctx context.Context, version string, previous *string) (*domain.Workspace, error)

	// Load reads the workspace rooted at path. Returns ErrWorkspaceNotFound if
	// the directory is missing and ErrWorkspaceCorrupted if the metadata
	// document is missing or invalid.
	Load(ctx context.Context, path string) (*domain.Workspace, error)

	// Get loads the workspace for a target version.
	Get(ctx context.Context, version string) (*domain.Workspace, error)

	// UpdateStatus moves the workspace to status, persisting before it
	// returns the updated copy. Only single forward steps are accepted.
	UpdateStatus(ctx context.Context, ws *domain.Workspace, status domain.WorkspaceStatus) (*domain.Workspace, error)

	// RecordStageResult records the result of a stage and, on success,
	// advances the status in the same write.
	RecordStageResult(ctx context.Context, ws *domain.Workspace, stage int, result domain.StageResult) (*domain.Workspace, error)

	// RecordCommitProgress persists how far a commit of a ready workspace
	// got. The start time of the first recorded progress is kept.
	RecordCommitProgress(ctx context.Context, ws *domain.Workspace, progress domain.CommitProgress) (*domain.Workspace, error)

	// List scans the staging root. Directories whose metadata cannot be
	// loaded are returned with Err set rather than skipped.
	List(ctx context.Context) ([]Entry, error)

	// Remove recursively deletes the workspace root. Irreversible.
	Remove(ctx context.Context, ws *domain.Workspace) error

	// Root returns the staging root directory.
	Root() string

	// PathFor returns the workspace root for a target version.
	PathFor(version string) string
}

// Entry is one directory found by List.
type Entry struct {
	Path      string
	Workspace *domain.Workspace
	Err       error
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	root       string
	categories []constants.Category
	clock      clock.Clock
	logger     zerolog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithClock sets the clock used for start and update timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *FileStore) { s.clock = clock.OrReal(c) }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// WithCategories overrides the category output directories created for each workspace.
func WithCategories(categories []constants.Category) Option {
	return func(s *FileStore) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// NewFileStore creates a FileStore rooted at the staging directory root.
func NewFileStore(root string, opts ...Option) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("staging root: %w", sherrors.ErrEmptyValue)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging root: %w", err)
	}

	s := &FileStore{
		root:       abs,
		categories: constants.DefaultCategories(),
		clock:      clock.RealClock{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the staging root directory.
func (s *FileStore) Root() string {
	return s.root
}

// PathFor returns the workspace root for a target version.
func (s *FileStore) PathFor(version string) string {
	return filepath.Join(s.root, version)
}

// Categories returns the category directories created in each workspace.
func (s *FileStore) Categories() []constants.Category {
	out := make([]constants.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Create makes a new workspace for version.
func (s *FileStore) Create(ctx context.Context, version string, previous *string) (*domain.Workspace, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if err := ValidateVersionPair(version, previous); err != nil {
		return nil, fmt.Errorf("failed to create workspace '%s': %w", version, err)
	}

	if err := os.MkdirAll(s.root, fsutil.DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create staging root: %w", err)
	}

	wsPath := s.PathFor(version)

	// Single exclusive mkdir: two racing processes cannot both succeed.
	if err := os.Mkdir(wsPath, fsutil.DirPerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create workspace '%s': %w", version, sherrors.ErrWorkspaceExists)
		}
		return nil, fmt.Errorf("failed to create workspace '%s': %w", version, err)
	}

	ws, err := s.initialize(ctx, wsPath, version, previous)
	if err != nil {
		_ = os.RemoveAll(wsPath)
		return nil, fmt.Errorf("failed to create workspace '%s': %w", version, err)
	}

	s.logger.Info().
		Str("version", ws.Version).
		Str("previous_version", ws.PreviousVersionString()).
		Str("run_id", ws.RunID).
		Str("path", ws.Path).
		Msg("workspace created")

	return ws, nil
}

// initialize populates a freshly created workspace directory.
func (s *FileStore) initialize(ctx context.Context, wsPath, version string, previous *string) (*domain.Workspace, error) {
	for _, c := range s.categories {
		if err := os.Mkdir(filepath.Join(wsPath, c.String()), fsutil.DirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", c, err)
		}
	}

	now := s.clock.Now()
	ws := &domain.Workspace{
		Version:       version,
		RunID:         uuid.NewString(),
		Path:          wsPath,
		Status:        domain.StatusCreated,
		StartTime:     now,
		UpdatedAt:     now,
		StageResults:  map[int]domain.StageResult{},
		SchemaVersion: constants.WorkspaceSchemaVersion,
	}
	if previous != nil {
		prev := *previous
		ws.PreviousVersion = &prev
	}

	release, err := flock.Acquire(ctx, lockPath(wsPath), constants.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = release() }()

	if err := writeMetadata(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// Load reads the workspace rooted at path.
func (s *FileStore) Load(ctx context.Context, path string) (*domain.Workspace, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read workspace at %s: %w", abs, sherrors.ErrWorkspaceNotFound)
		}
		return nil, fmt.Errorf("failed to read workspace at %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", abs, sherrors.ErrWorkspaceCorrupted)
	}

	return readMetadata(abs)
}

// Get loads the workspace for a target version.
func (s *FileStore) Get(ctx context.Context, version string) (*domain.Workspace, error) {
	if err := ValidateVersion(version); err != nil {
		return nil, fmt.Errorf("failed to read workspace '%s': %w", version, err)
	}
	return s.Load(ctx, s.PathFor(version))
}

// UpdateStatus moves the workspace to status and persists it.
func (s *FileStore) UpdateStatus(ctx context.Context, ws *domain.Workspace, status domain.WorkspaceStatus) (*domain.Workspace, error) {
	updated, err := s.mutate(ctx, ws, func(current *domain.Workspace) error {
		if !domain.CanTransition(current.Status, status) {
			return fmt.Errorf("%s -> %s: %w", current.Status, status, sherrors.ErrInvalidTransition)
		}
		current.Status = status
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update workspace '%s': %w", ws.Version, err)
	}

	s.logger.Debug().
		Str("version", updated.Version).
		Str("run_id", updated.RunID).
		Str("status", updated.Status.String()).
		Msg("workspace status updated")

	return updated, nil
}

// RecordStageResult records an immutable stage result.
func (s *FileStore) RecordStageResult(ctx context.Context, ws *domain.Workspace, stage int, result domain.StageResult) (*domain.Workspace, error) {
	next, ok := domain.StatusAfterStage(stage)
	if !ok {
		return nil, fmt.Errorf("stage %d: %w", stage, sherrors.ErrInvalidStage)
	}

	updated, err := s.mutate(ctx, ws, func(current *domain.Workspace) error {
		if _, recorded := current.StageResults[stage]; recorded {
			return fmt.Errorf("stage %d: %w", stage, sherrors.ErrStageAlreadyRecorded)
		}
		if stage == 2 {
			if prev, ok := current.StageResults[1]; !ok || !prev.Success {
				return fmt.Errorf("stage 2 recorded before a successful stage 1: %w", sherrors.ErrInvalidStatus)
			}
		}

		if current.StageResults == nil {
			current.StageResults = map[int]domain.StageResult{}
		}
		files := make([]string, len(result.FilesWritten))
		copy(files, result.FilesWritten)
		result.FilesWritten = files
		current.StageResults[stage] = result

		if !result.Success {
			return nil
		}
		if !domain.CanTransition(current.Status, next) {
			return fmt.Errorf("%s -> %s: %w", current.Status, next, sherrors.ErrInvalidTransition)
		}
		current.Status = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record stage %d for workspace '%s': %w", stage, ws.Version, err)
	}

	s.logger.Debug().
		Str("version", updated.Version).
		Str("run_id", updated.RunID).
		Int("stage", stage).
		Bool("success", result.Success).
		Int("files_written", len(result.FilesWritten)).
		Msg("stage result recorded")

	return updated, nil
}

// RecordCommitProgress persists commit progress for a ready workspace.
func (s *FileStore) RecordCommitProgress(ctx context.Context, ws *domain.Workspace, progress domain.CommitProgress) (*domain.Workspace, error) {
	updated, err := s.mutate(ctx, ws, func(current *domain.Workspace) error {
		if current.Status != domain.StatusReady {
			return fmt.Errorf("commit progress in status %s: %w", current.Status, sherrors.ErrInvalidStatus)
		}
		switch {
		case current.Commit != nil:
			progress.StartedAt = current.Commit.StartedAt
		case progress.StartedAt.IsZero():
			progress.StartedAt = s.clock.Now()
		}
		progress.Moved = append([]string{}, progress.Moved...)
		current.Commit = &progress
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record commit progress for workspace '%s': %w", ws.Version, err)
	}
	return updated, nil
}

// mutate re-reads the workspace document under lock, applies fn, and writes
// the document back before returning the new state.
func (s *FileStore) mutate(ctx context.Context, ws *domain.Workspace, fn func(*domain.Workspace) error) (*domain.Workspace, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if ws == nil || ws.Path == "" {
		return nil, fmt.Errorf("workspace path: %w", sherrors.ErrEmptyValue)
	}

	if _, err := os.Stat(ws.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, sherrors.ErrWorkspaceNotFound
	}

	release, err := flock.Acquire(ctx, lockPath(ws.Path), constants.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = release() }()

	current, err := readMetadata(ws.Path)
	if err != nil {
		return nil, err
	}

	if err := fn(current); err != nil {
		return nil, err
	}

	current.UpdatedAt = s.clock.Now()
	if err := writeMetadata(current); err != nil {
		return nil, err
	}
	return current, nil
}

// List scans the staging root for workspace directories.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		path := filepath.Join(s.root, de.Name())
		ws, loadErr := readMetadata(path)
		entries = append(entries, Entry{Path: path, Workspace: ws, Err: loadErr})
	}

	return entries, nil
}

// Remove deletes the workspace root. Removing an absent workspace is not an error.
func (s *FileStore) Remove(ctx context.Context, ws *domain.Workspace) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if ws == nil || ws.Path == "" {
		return fmt.Errorf("workspace path: %w", sherrors.ErrEmptyValue)
	}
	if err := os.RemoveAll(ws.Path); err != nil {
		return fmt.Errorf("failed to remove workspace '%s': %w", ws.Version, err)
	}
	return nil
}

// lockPath returns the lock file guarding a workspace's metadata document.
func lockPath(wsPath string) string {
	return filepath.Join(wsPath, constants.WorkspaceFileName+constants.LockFileSuffix)
}

// readMetadata parses and validates the metadata document of the workspace at wsPath.
func readMetadata(wsPath string) (*domain.Workspace, error) {
	file := filepath.Join(wsPath, constants.WorkspaceFileName)
	data, err := os.ReadFile(file) //#nosec G304 -- path is constructed from the staging root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace at %s has no %s: %w", wsPath, constants.WorkspaceFileName, sherrors.ErrWorkspaceCorrupted)
		}
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	var ws domain.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("workspace at %s has corrupted state file: %w", wsPath, sherrors.ErrWorkspaceCorrupted)
	}
	if err := validateMetadata(&ws); err != nil {
		return nil, fmt.Errorf("workspace at %s: %v: %w", wsPath, err, sherrors.ErrWorkspaceCorrupted)
	}

	// The directory location wins over the recorded path so a staging root
	// that was moved still loads.
	ws.Path = wsPath
	if ws.StageResults == nil {
		ws.StageResults = map[int]domain.StageResult{}
	}

	return &ws, nil
}

// validateMetadata rejects documents that parse but cannot describe a workspace.
func validateMetadata(ws *domain.Workspace) error {
	if err := ValidateVersion(ws.Version); err != nil {
		return err
	}
	if !domain.IsKnownStatus(ws.Status) {
		return fmt.Errorf("unknown status %q", ws.Status)
	}
	if ws.StartTime.IsZero() {
		return errors.New("missing start time")
	}
	for stage := range ws.StageResults {
		if stage < 1 || stage > domain.StageCount {
			return fmt.Errorf("unexpected stage index %d", stage)
		}
	}
	return nil
}

// writeMetadata persists the workspace document. Callers hold the lock.
func writeMetadata(ws *domain.Workspace) error {
	ws.SchemaVersion = constants.WorkspaceSchemaVersion
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	return fsutil.AtomicWrite(ws.MetadataPath(), data, fsutil.FilePerm)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
