package recovery

import (
	"fmt"

	"github.com/mrz1836/stagehand/internal/constants"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// RecoveryError reports that an orphan cannot be handled with the requested
// action, e.g. committing a workspace whose stages never finished.
type RecoveryError struct {
	Path   string
	Action constants.RecoveryAction
	Err    error
}

// Error implements the error interface.
func (e *RecoveryError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Action, e.Path, e.Err)
}

// Unwrap returns ErrRecovery and the underlying cause.
func (e *RecoveryError) Unwrap() []error {
	return []error{sherrors.ErrRecovery, e.Err}
}
