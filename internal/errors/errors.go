// Package errors provides centralized error handling for stagehand.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
// Typed errors that carry context (conflict lists, partial commit counts, stage
// indexes) live in the packages that produce them and unwrap to these sentinels.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrWorkspaceExists indicates an attempt to create a workspace for a target
	// version that already has one on disk.
	ErrWorkspaceExists = errors.New("workspace already exists")

	// ErrOrphanBlocking indicates a new workspace was refused because unresolved
	// orphaned workspaces exist in the staging root.
	ErrOrphanBlocking = errors.New("unresolved orphaned workspaces")

	// ErrStageFailure indicates a pipeline stage executor reported failure.
	ErrStageFailure = errors.New("stage failed")

	// ErrConflict indicates production files changed since the baseline was captured.
	ErrConflict = errors.New("production changed since baseline")

	// ErrCommitFailed indicates one or more staged files could not be moved
	// into production.
	ErrCommitFailed = errors.New("commit failed")

	// ErrRecovery indicates an orphan cannot be recovered with the requested action.
	ErrRecovery = errors.New("recovery failed")

	// ErrWorkspaceNotFound indicates the requested workspace does not exist.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceCorrupted indicates the workspace metadata document is
	// missing, unreadable, or structurally invalid.
	ErrWorkspaceCorrupted = errors.New("workspace state corrupted")

	// ErrInvalidStatus indicates a workspace is in the wrong status for the operation.
	ErrInvalidStatus = errors.New("invalid workspace status")

	// ErrInvalidTransition indicates an attempt to move a workspace backwards
	// or skip a status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStageAlreadyRecorded indicates a stage result was already recorded.
	// Stage results are immutable once written.
	ErrStageAlreadyRecorded = errors.New("stage result already recorded")

	// ErrInvalidStage indicates a stage index other than 1 or 2.
	ErrInvalidStage = errors.New("invalid stage index")

	// ErrBaselineExists indicates a second baseline capture was attempted.
	ErrBaselineExists = errors.New("baseline already captured")

	// ErrBaselineMissing indicates a workspace has no baseline snapshot.
	ErrBaselineMissing = errors.New("baseline snapshot missing")

	// ErrManifestInvalid indicates the commit manifest could not be derived,
	// for example because two staged files target the same production path.
	ErrManifestInvalid = errors.New("invalid commit manifest")

	// ErrStagedFileMissing indicates a file listed in a stage result is not
	// present in the workspace.
	ErrStagedFileMissing = errors.New("staged file missing")

	// ErrPathTraversal indicates a relative path escapes its root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrInvalidVersion indicates a malformed target or previous version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the confirmation flag.
	ErrNonInteractiveMode = errors.New("use --yes in non-interactive mode")

	// ErrOperationCanceled indicates the user canceled an operation.
	ErrOperationCanceled = errors.New("operation canceled by user")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")

	// ErrStageNotConfigured indicates a stage has no executor command configured.
	ErrStageNotConfigured = errors.New("stage not configured")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
