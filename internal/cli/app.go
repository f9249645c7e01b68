package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/stagehand/internal/baseline"
	"github.com/mrz1836/stagehand/internal/commit"
	"github.com/mrz1836/stagehand/internal/config"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/domain"
	"github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/logging"
	"github.com/mrz1836/stagehand/internal/pipeline"
	"github.com/mrz1836/stagehand/internal/recovery"
	"github.com/mrz1836/stagehand/internal/rollback"
	"github.com/mrz1836/stagehand/internal/workspace"
)

// app holds the services one command invocation works with.
type app struct {
	cfg            *config.Config
	productionRoot string
	store          *workspace.FileStore
	orchestrator   *pipeline.Orchestrator
	recovery       *recovery.Service
	logger         zerolog.Logger
}

// appOptions tunes how newApp builds stage executors.
type appOptions struct {
	// liveOutput receives stage command stdout and stderr as they run.
	liveOutput io.Writer
}

// newApp loads configuration with the global flag overrides applied and
// wires the store, baseline, commit, rollback, recovery and pipeline services.
func newApp(ctx context.Context, flags *GlobalFlags, opts appOptions) (*app, error) {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	cfg, err := config.LoadWithOverrides(ctx, flags.ConfigFile, &config.Config{
		Staging:    config.StagingConfig{Root: flags.StagingRoot},
		Production: config.ProductionConfig{Root: flags.ProductionRoot},
	})
	if err != nil {
		return nil, err
	}

	productionRoot, err := filepath.Abs(cfg.Production.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve production root %s", cfg.Production.Root)
	}
	categories := cfg.Production.CategoryList()

	store, err := workspace.NewFileStore(cfg.Staging.Root,
		workspace.WithCategories(categories),
		workspace.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	baselineOpts := []baseline.Option{
		baseline.WithCategories(categories),
		baseline.WithConcurrency(cfg.Baseline.Concurrency),
		baseline.WithLogger(logger),
	}
	snapshotter := baseline.NewSnapshotter(productionRoot, baselineOpts...)
	detector := baseline.NewDetector(productionRoot, baselineOpts...)
	rollbacker := rollback.New(store, logger)

	stages := buildStages(cfg, logger, opts.liveOutput)
	stageCategories := make(commit.StageCategories, len(stages))
	for i, s := range stages {
		stageCategories[i+1] = s.Category
	}

	committer := commit.New(store, detector, productionRoot,
		commit.WithCategories(categories),
		commit.WithStageCategories(stageCategories),
		commit.WithLogger(logger),
	)

	recoverySvc := recovery.NewService(store, committer, rollbacker, productionRoot,
		recovery.WithScope(constants.OrphanScope(cfg.Recovery.OrphanScope)),
		recovery.WithCategories(categories),
		recovery.WithLogger(logger),
	)

	orch, err := pipeline.New(pipeline.Deps{
		Store:      store,
		Baseline:   snapshotter,
		Orphans:    recoverySvc,
		Committer:  committer,
		Rollbacker: rollbacker,
	}, stages,
		pipeline.WithCategories(categories),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:            cfg,
		productionRoot: productionRoot,
		store:          store,
		orchestrator:   orch,
		recovery:       recoverySvc,
		logger:         logger,
	}, nil
}

// buildStages turns the configured stage commands into executors. A stage
// without a command gets an executor that fails with ErrStageNotConfigured,
// so every command except run can still be used.
func buildStages(cfg *config.Config, logger zerolog.Logger, liveOutput io.Writer) []pipeline.Stage {
	stages := make([]pipeline.Stage, 0, len(cfg.Stages))
	for _, sc := range cfg.Stages {
		stage := pipeline.Stage{
			Name:     sc.Name,
			Category: constants.Category(sc.Category),
		}
		if sc.Command == "" {
			name := sc.Name
			stage.Executor = pipeline.StageExecutorFunc(func(context.Context, pipeline.StageInput) (domain.StageResult, error) {
				return domain.StageResult{}, fmt.Errorf("stage %q has no command: %w", name, errors.ErrStageNotConfigured)
			})
		} else {
			logger.Debug().
				Str("stage_name", sc.Name).
				Str("command", logging.SafeValue("command", sc.Command)).
				Msg("stage configured")
			stage.Executor = pipeline.NewCommandExecutor(sc.Command,
				pipeline.WithTimeout(sc.Timeout),
				pipeline.WithLiveOutput(liveOutput),
				pipeline.WithCommandLogger(logger),
			)
		}
		stages = append(stages, stage)
	}
	return stages
}

// requireStageCommands fails before any workspace is created when a stage
// has nothing to run.
func requireStageCommands(cfg *config.Config) error {
	for i, sc := range cfg.Stages {
		if sc.Command == "" {
			return fmt.Errorf("stages[%d] (%s) has no command: %w", i+1, sc.Name, errors.ErrStageNotConfigured)
		}
	}
	return nil
}
