package constants

// WorkspaceStatus represents the persisted state of a staging workspace.
// Values are stored verbatim in workspace.json.
//
// The only legal forward path is:
//
//	created → stage1-complete → stage2-complete → ready → committed
//
// Any non-terminal status may also end by rollback, which removes the
// workspace from disk instead of recording a status.
type WorkspaceStatus string

const (
	// WorkspaceStatusCreated indicates the workspace and its baseline exist
	// but no stage has completed.
	WorkspaceStatusCreated WorkspaceStatus = "created"

	// WorkspaceStatusStage1Complete indicates stage 1 succeeded.
	WorkspaceStatusStage1Complete WorkspaceStatus = "stage1-complete"

	// WorkspaceStatusStage2Complete indicates stage 2 succeeded.
	WorkspaceStatusStage2Complete WorkspaceStatus = "stage2-complete"

	// WorkspaceStatusReady indicates the workspace may be committed.
	WorkspaceStatusReady WorkspaceStatus = "ready"

	// WorkspaceStatusCommitted indicates every staged file was promoted.
	// It is only observable in the window between the final move and the
	// removal of the workspace directory.
	WorkspaceStatusCommitted WorkspaceStatus = "committed"

	// WorkspaceStatusCorrupt is never persisted. It labels workspace
	// directories whose metadata cannot be read during orphan scans.
	WorkspaceStatusCorrupt WorkspaceStatus = "corrupt"
)

// String returns the string representation of the WorkspaceStatus.
func (s WorkspaceStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s WorkspaceStatus) IsTerminal() bool {
	return s == WorkspaceStatusCommitted
}

// IsCommittable reports whether a commit may be attempted from this status.
// stage2-complete is accepted because recovery advances it to ready first.
func (s WorkspaceStatus) IsCommittable() bool {
	return s == WorkspaceStatusReady || s == WorkspaceStatusStage2Complete
}

// RecoveryAction names an operator-selected recovery path for an orphan.
type RecoveryAction string

const (
	// RecoveryActionCommit promotes the orphan's staged output.
	RecoveryActionCommit RecoveryAction = "commit"

	// RecoveryActionRollback discards the orphan.
	RecoveryActionRollback RecoveryAction = "rollback"

	// RecoveryActionInspect reports on the orphan without mutating it.
	RecoveryActionInspect RecoveryAction = "inspect"
)

// ValidRecoveryActions returns the recognized recovery actions.
func ValidRecoveryActions() []RecoveryAction {
	return []RecoveryAction{RecoveryActionCommit, RecoveryActionRollback, RecoveryActionInspect}
}

// OrphanScope controls how widely a new run scans for orphans.
type OrphanScope string

const (
	// OrphanScopeGlobal blocks a run while any orphan exists in the staging root.
	OrphanScopeGlobal OrphanScope = "global"

	// OrphanScopeVersion blocks a run only on orphans for the same target version.
	OrphanScopeVersion OrphanScope = "version"
)
