package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) so that errors.Is() traversal order is deterministic.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Workspace lifecycle
	// ===================
	{
		err: ErrWorkspaceExists,
		info: ErrorInfo{
			Message: "A workspace for this version already exists.",
			Action:  "Run 'stagehand status' and resolve it with 'stagehand recover <dir> commit|rollback'.",
		},
	},
	{
		err: ErrOrphanBlocking,
		info: ErrorInfo{
			Message: "Unresolved workspaces from an interrupted run are blocking new runs.",
			Action:  "Run 'stagehand status' to list them, then 'stagehand recover <dir> <commit|rollback|inspect>'.",
		},
	},
	{
		err: ErrWorkspaceNotFound,
		info: ErrorInfo{
			Message: "Workspace not found.",
			Action:  "Run 'stagehand status' to see existing workspaces.",
		},
	},
	{
		err: ErrWorkspaceCorrupted,
		info: ErrorInfo{
			Message: "Workspace metadata is corrupted or unreadable.",
			Action:  "Inspect the directory manually, then remove it with 'stagehand recover <dir> rollback'.",
		},
	},
	{
		err: ErrInvalidStatus,
		info: ErrorInfo{
			Message: "The workspace is not in a state that allows this operation.",
			Action:  "Run 'stagehand recover <dir> inspect' to check its status.",
		},
	},

	// ===================
	// Pipeline
	// ===================
	{
		err: ErrStageFailure,
		info: ErrorInfo{
			Message: "A pipeline stage failed; the workspace was rolled back and production is unchanged.",
			Action:  "Fix the stage error and rerun the pipeline.",
		},
	},
	{
		err: ErrStageNotConfigured,
		info: ErrorInfo{
			Message: "A pipeline stage has no command configured.",
			Action:  "Set 'stages[].command' in .stagehand/config.yaml.",
		},
	},

	// ===================
	// Commit
	// ===================
	{
		err: ErrConflict,
		info: ErrorInfo{
			Message: "Production files changed since the workspace was created.",
			Action:  "Review the conflicts, then retry with --force to overwrite or roll back.",
		},
	},
	{
		err: ErrCommitFailed,
		info: ErrorInfo{
			Message: "Commit stopped partway; the workspace was kept for inspection.",
			Action:  "Run 'stagehand recover <dir> inspect', fix the cause, then 'stagehand recover <dir> commit'.",
		},
	},
	{
		err: ErrRecovery,
		info: ErrorInfo{
			Message: "The workspace cannot be recovered with the requested action.",
			Action:  "Use 'inspect' to check its status or 'rollback' to discard it.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another process is holding the workspace lock.",
			Action:  "Wait for the other process to finish and retry.",
		},
	},

	// ===================
	// Input
	// ===================
	{
		err: ErrInvalidVersion,
		info: ErrorInfo{
			Message: "The version string is not valid.",
			Action:  "Use letters, digits, '.', '-', '+' or '_' (for example v2.0.0).",
		},
	},
	{
		err: ErrNonInteractiveMode,
		info: ErrorInfo{
			Message: "Confirmation is required but no terminal is attached.",
			Action:  "Pass --yes to confirm in non-interactive mode.",
		},
	},
	{
		err: ErrConfigInvalid,
		info: ErrorInfo{
			Message: "The configuration is invalid.",
			Action:  "Run 'stagehand config show' and fix the reported field.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo tries a direct map hit first, then errors.Is() traversal for
// wrapped errors. Unknown errors get their own message and no action.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
