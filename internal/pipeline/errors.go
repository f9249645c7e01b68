package pipeline

import (
	"fmt"
	"strings"

	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/recovery"
)

// StageFailureError reports a failed stage. The workspace has already been
// rolled back when it is returned.
type StageFailureError struct {
	Stage   int
	Name    string
	Message string
}

// Error implements the error interface.
func (e *StageFailureError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("stage %d (%s) failed: %s", e.Stage, e.Name, e.Message)
	}
	return fmt.Sprintf("stage %d failed: %s", e.Stage, e.Message)
}

// Unwrap returns ErrStageFailure.
func (e *StageFailureError) Unwrap() error {
	return sherrors.ErrStageFailure
}

// OrphanBlockingError reports orphans that must be resolved before a new
// workspace can be created.
type OrphanBlockingError struct {
	Orphans []recovery.Orphan
}

// Error implements the error interface.
func (e *OrphanBlockingError) Error() string {
	names := make([]string, 0, len(e.Orphans))
	for _, o := range e.Orphans {
		names = append(names, fmt.Sprintf("%s (%s)", o.Version, o.Status))
	}
	return fmt.Sprintf("%d unresolved orphaned workspace(s): %s", len(e.Orphans), strings.Join(names, ", "))
}

// Unwrap returns ErrOrphanBlocking.
func (e *OrphanBlockingError) Unwrap() error {
	return sherrors.ErrOrphanBlocking
}
