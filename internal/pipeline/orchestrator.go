// Package pipeline runs the two-stage saga that fills a staging workspace:
// orphan check, create, baseline, stage 1, stage 2, ready. Committing or
// rolling back the ready workspace is left to the caller.
//
// The orchestrator keeps no state between calls. Every transition goes
// through the workspace store, so the stages, a later commit, and recovery
// can each run in separate processes.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/clock"
	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/recovery"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// BaselineCapturer selects and snapshots production paths for a new workspace.
type BaselineCapturer interface {
	Candidates(ws *domain.Workspace) ([]string, error)
	Capture(ctx context.Context, ws *domain.Workspace, candidates []string) (*domain.BaselineSnapshot, error)
}

// OrphanDetector reports orphans that block a run for version.
type OrphanDetector interface {
	BlockingOrphans(ctx context.Context, version string) ([]recovery.Orphan, error)
}

// Committer promotes a ready workspace.
type Committer interface {
	Commit(ctx context.Context, ws *domain.Workspace, opts commit.Options) (*commit.Result, error)
}

// Rollbacker discards a workspace.
type Rollbacker interface {
	Rollback(ctx context.Context, ws *domain.Workspace, reason string) error
}

// Stage binds an executor to the category directory it writes into.
type Stage struct {
	Name     string
	Category constants.Category
	Executor StageExecutor
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Store      workspace.Store
	Baseline   BaselineCapturer
	Orphans    OrphanDetector
	Committer  Committer
	Rollbacker Rollbacker
}

// InitResult describes a freshly initialized workspace.
type InitResult struct {
	Workspace *domain.Workspace
	// Dirs maps each category to its absolute output directory.
	Dirs map[constants.Category]string
}

// Result is the structured outcome of Run.
type Result struct {
	Success       bool                       `json:"success"`
	Version       string                     `json:"version"`
	Status        constants.WorkspaceStatus  `json:"status,omitempty"`
	StageResults  map[int]domain.StageResult `json:"stage_results"`
	Error         string                     `json:"error,omitempty"`
	WorkspacePath string                     `json:"workspace_path,omitempty"`
	RolledBack    bool                       `json:"rolled_back"`
}

// Orchestrator runs pipeline sagas.
type Orchestrator struct {
	deps       Deps
	stages     [domain.StageCount]Stage
	categories []constants.Category
	clock      clock.Clock
	logger     zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithCategories sets the category directories reported by Init.
// It should match the categories the store creates.
func WithCategories(categories []constants.Category) Option {
	return func(o *Orchestrator) {
		if len(categories) > 0 {
			o.categories = categories
		}
	}
}

// WithClock sets the clock used to time stages.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock.OrReal(c) }
}

// New creates an Orchestrator. stages must hold exactly two stages, in order.
func New(deps Deps, stages []Stage, opts ...Option) (*Orchestrator, error) {
	if deps.Store == nil || deps.Baseline == nil || deps.Orphans == nil || deps.Committer == nil || deps.Rollbacker == nil {
		return nil, fmt.Errorf("pipeline dependencies: %w", sherrors.ErrEmptyValue)
	}
	if len(stages) != domain.StageCount {
		return nil, fmt.Errorf("pipeline needs %d stages, got %d: %w", domain.StageCount, len(stages), sherrors.ErrInvalidArgument)
	}

	o := &Orchestrator{
		deps:       deps,
		categories: constants.DefaultCategories(),
		clock:      clock.RealClock{},
		logger:     zerolog.Nop(),
	}
	for i, s := range stages {
		if s.Executor == nil {
			return nil, fmt.Errorf("stage %d: %w", i+1, sherrors.ErrStageNotConfigured)
		}
		if s.Category == "" {
			return nil, fmt.Errorf("stage %d category: %w", i+1, sherrors.ErrEmptyValue)
		}
		o.stages[i] = s
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// StageCategories returns the category each stage writes into, keyed by stage index.
func (o *Orchestrator) StageCategories() commit.StageCategories {
	m := make(commit.StageCategories, domain.StageCount)
	for i, s := range o.stages {
		m[i+1] = s.Category
	}
	return m
}

// Init refuses to start while blocking orphans exist, then creates the
// workspace for version and captures its baseline.
func (o *Orchestrator) Init(ctx context.Context, version string, previous *string) (*InitResult, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	orphans, err := o.deps.Orphans.BlockingOrphans(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("orphan check failed: %w", err)
	}
	if len(orphans) > 0 {
		o.logger.Warn().Int("orphans", len(orphans)).Str("version", version).Msg("init refused: orphaned workspaces")
		return nil, &OrphanBlockingError{Orphans: orphans}
	}

	ws, err := o.deps.Store.Create(ctx, version, previous)
	if err != nil {
		return nil, err
	}

	candidates, err := o.deps.Baseline.Candidates(ws)
	if err == nil {
		_, err = o.deps.Baseline.Capture(ctx, ws, candidates)
	}
	if err != nil {
		o.rollback(ctx, ws, "baseline capture failed")
		return nil, fmt.Errorf("failed to capture baseline: %w", err)
	}

	dirs := make(map[constants.Category]string)
	for _, c := range o.categories {
		dirs[c] = ws.CategoryDir(c)
	}

	return &InitResult{Workspace: ws, Dirs: dirs}, nil
}

// Run initializes a workspace for version and runs both stages into it.
// On success the workspace is ready. On any stage failure or cancellation
// the whole workspace is rolled back, including stage 1 output.
func (o *Orchestrator) Run(ctx context.Context, version string, previous *string) (*Result, error) {
	result := &Result{Version: version, StageResults: map[int]domain.StageResult{}}

	initRes, err := o.Init(ctx, version, previous)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	ws := initRes.Workspace
	result.WorkspacePath = ws.Path

	log := o.logger.With().Str("version", ws.Version).Str("run_id", ws.RunID).Logger()
	log.Info().Str("previous_version", ws.PreviousVersionString()).Msg("pipeline started")

	for i := range domain.StageCount {
		stage := i + 1
		ws, err = o.runStage(ctx, ws, stage, result)
		if err != nil {
			result.Error = err.Error()
			result.RolledBack = true
			result.Status = ""
			return result, err
		}
		result.Status = ws.Status
	}

	ready, err := o.deps.Store.UpdateStatus(ctx, ws, domain.StatusReady)
	if err != nil {
		o.rollback(ctx, ws, "failed to mark ready")
		result.Error = err.Error()
		result.RolledBack = true
		result.Status = ""
		return result, err
	}

	result.Success = true
	result.Status = ready.Status
	log.Info().Int("files", ready.TotalFilesWritten()).Msg("workspace ready")

	return result, nil
}

// runStage invokes one stage executor, records its result, and rolls the
// workspace back on failure.
func (o *Orchestrator) runStage(ctx context.Context, ws *domain.Workspace, stage int, result *Result) (*domain.Workspace, error) {
	st := o.stages[stage-1]
	log := o.logger.With().
		Str("version", ws.Version).
		Str("run_id", ws.RunID).
		Int("stage", stage).
		Str("stage_name", st.Name).
		Logger()

	if err := ctxutil.Canceled(ctx); err != nil {
		o.rollback(ctx, ws, fmt.Sprintf("canceled before stage %d: %v", stage, context.Cause(ctx)))
		return nil, err
	}

	log.Info().Msg("stage started")
	start := o.clock.Now()

	res, runErr := st.Executor.Run(ctx, StageInput{
		Stage:           stage,
		Version:         ws.Version,
		PreviousVersion: ws.PreviousVersionString(),
		OutputDir:       ws.CategoryDir(st.Category),
		WorkspaceDir:    ws.Path,
	})
	if runErr != nil {
		res = domain.StageResult{Success: false, Error: runErr.Error()}
	}
	if !res.Success && res.Error == "" {
		res.Error = "stage reported failure"
	}
	if res.DurationMs == 0 {
		res.DurationMs = o.clock.Now().Sub(start).Milliseconds()
	}
	if res.FilesWritten == nil {
		res.FilesWritten = []string{}
	}
	result.StageResults[stage] = res

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn().Msg("run canceled during stage")
		o.rollback(ctx, ws, fmt.Sprintf("canceled during stage %d: %v", stage, context.Cause(ctx)))
		return nil, fmt.Errorf("stage %d interrupted: %w", stage, errors.Join(sherrors.ErrOperationCanceled, ctxErr))
	}

	updated, err := o.deps.Store.RecordStageResult(ctx, ws, stage, res)
	if err != nil {
		o.rollback(ctx, ws, fmt.Sprintf("failed to record stage %d", stage))
		return nil, err
	}

	if !res.Success {
		log.Error().Str("error", res.Error).Int64("duration_ms", res.DurationMs).Msg("stage failed")
		o.rollback(ctx, updated, fmt.Sprintf("stage %d failed: %s", stage, res.Error))
		return nil, &StageFailureError{Stage: stage, Name: st.Name, Message: res.Error}
	}

	log.Info().
		Int("files_written", len(res.FilesWritten)).
		Int64("duration_ms", res.DurationMs).
		Str("status", updated.Status.String()).
		Msg("stage complete")

	return updated, nil
}

// Commit promotes the workspace for version.
func (o *Orchestrator) Commit(ctx context.Context, version string, force bool) (*commit.Result, error) {
	ws, err := o.deps.Store.Get(ctx, version)
	if err != nil {
		return nil, err
	}
	return o.deps.Committer.Commit(ctx, ws, commit.Options{Force: force})
}

// Rollback discards the workspace for version. A missing or corrupt
// workspace is still removed; rolling back twice succeeds.
func (o *Orchestrator) Rollback(ctx context.Context, version, reason string) error {
	if err := workspace.ValidateVersion(version); err != nil {
		return err
	}
	ws, err := o.deps.Store.Get(ctx, version)
	if err != nil {
		if !errors.Is(err, sherrors.ErrWorkspaceNotFound) && !errors.Is(err, sherrors.ErrWorkspaceCorrupted) {
			return err
		}
		ws = &domain.Workspace{Version: version, Path: o.deps.Store.PathFor(version)}
	}
	return o.deps.Rollbacker.Rollback(ctx, ws, reason)
}

func (o *Orchestrator) rollback(ctx context.Context, ws *domain.Workspace, reason string) {
	if err := o.deps.Rollbacker.Rollback(ctx, ws, reason); err != nil {
		o.logger.Error().Err(err).Str("version", ws.Version).Msg("rollback after failure did not complete")
	}
}
