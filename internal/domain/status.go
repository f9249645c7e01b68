// Package domain provides shared domain types for stagehand workspaces.
package domain

import "github.com/mrz1836/stagehand/internal/constants"

// WorkspaceStatus is re-exported so callers can work with domain objects and
// their status values through a single import.
type WorkspaceStatus = constants.WorkspaceStatus

// Re-exported status values. These mirror internal/constants/status.go.
const (
	StatusCreated        = constants.WorkspaceStatusCreated
	StatusStage1Complete = constants.WorkspaceStatusStage1Complete
	StatusStage2Complete = constants.WorkspaceStatusStage2Complete
	StatusReady          = constants.WorkspaceStatusReady
	StatusCommitted      = constants.WorkspaceStatusCommitted
)

// validTransitions lists the single legal successor of each status.
// Rollback is not a transition: it deletes the workspace instead.
//
//nolint:gochecknoglobals // Immutable transition table
var validTransitions = map[WorkspaceStatus]WorkspaceStatus{
	StatusCreated:        StatusStage1Complete,
	StatusStage1Complete: StatusStage2Complete,
	StatusStage2Complete: StatusReady,
	StatusReady:          StatusCommitted,
}

// CanTransition reports whether a workspace may move from one status to another.
// Transitions are strictly forward and never skip a status.
func CanTransition(from, to WorkspaceStatus) bool {
	next, ok := validTransitions[from]
	return ok && next == to
}

// NextStatus returns the successor of from, or false when from is terminal
// or unknown.
func NextStatus(from WorkspaceStatus) (WorkspaceStatus, bool) {
	next, ok := validTransitions[from]
	return next, ok
}

// StatusAfterStage returns the status a workspace enters once the given
// stage succeeds.
func StatusAfterStage(stage int) (WorkspaceStatus, bool) {
	switch stage {
	case 1:
		return StatusStage1Complete, true
	case 2:
		return StatusStage2Complete, true
	default:
		return "", false
	}
}

// IsKnownStatus reports whether s is one of the persisted workspace statuses.
func IsKnownStatus(s WorkspaceStatus) bool {
	switch s {
	case StatusCreated, StatusStage1Complete, StatusStage2Complete, StatusReady, StatusCommitted:
		return true
	default:
		return false
	}
}
