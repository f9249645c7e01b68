package commit

import (
	"fmt"
	"strings"

	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// ConflictError reports production paths that changed since the baseline.
// Nothing in production was touched when it is returned.
type ConflictError struct {
	Version   string
	Conflicts []domain.Conflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	paths := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		paths = append(paths, c.ProductionPath)
	}
	return fmt.Sprintf("%d production path(s) changed since baseline for '%s': %s",
		len(e.Conflicts), e.Version, strings.Join(paths, ", "))
}

// Unwrap returns ErrConflict.
func (e *ConflictError) Unwrap() error {
	return sherrors.ErrConflict
}

// CommitError reports a commit that stopped partway. Files before FailedPath
// are already in production; the workspace is left on disk in its
// pre-commit status so it can be inspected and retried.
type CommitError struct {
	Version    string
	Committed  int
	Total      int
	FailedPath string
	Err        error
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of '%s' incomplete: %d of %d files committed; failed at %s: %v",
		e.Version, e.Committed, e.Total, e.FailedPath, e.Err)
}

// Unwrap returns ErrCommitFailed and the underlying move error.
func (e *CommitError) Unwrap() []error {
	return []error{sherrors.ErrCommitFailed, e.Err}
}
