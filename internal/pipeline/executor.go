package pipeline

import (
	"context"

	"github.com/mrz1836/stagehand/internal/domain"
)

// StageInput is what the orchestrator hands a stage executor.
type StageInput struct {
	// Stage is the 1-based stage index.
	Stage int

	// Version is the target version of the run.
	Version string

	// PreviousVersion is the diff base, or "" when there is none.
	PreviousVersion string

	// OutputDir is the absolute category directory the stage writes into.
	OutputDir string

	// WorkspaceDir is the workspace root holding every category directory.
	WorkspaceDir string
}

// StageExecutor performs one stage's content generation.
//
// Run blocks until the stage finishes. FilesWritten in the result are paths
// relative to OutputDir. A returned error is treated as a failed stage.
type StageExecutor interface {
	Run(ctx context.Context, in StageInput) (domain.StageResult, error)
}

// StageExecutorFunc adapts a function to StageExecutor.
type StageExecutorFunc func(ctx context.Context, in StageInput) (domain.StageResult, error)

// Run calls f.
func (f StageExecutorFunc) Run(ctx context.Context, in StageInput) (domain.StageResult, error) {
	return f(ctx, in)
}

var _ StageExecutor = StageExecutorFunc(nil)
