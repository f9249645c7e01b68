// Package constants provides centralized constant values used throughout stagehand.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by stagehand for state persistence.
const (
	// WorkspaceFileName is the name of the JSON metadata document stored at the
	// root of every workspace. Its location relative to the root never changes.
	WorkspaceFileName = "workspace.json"

	// BaselineFileName is the name of the frozen baseline snapshot document.
	BaselineFileName = "baseline.json"

	// LockFileSuffix is appended to a metadata file name to form its lock file.
	LockFileSuffix = ".lock"

	// TempFileSuffix marks files being written before their atomic rename.
	TempFileSuffix = ".tmp"
)

// Directory names used by stagehand for organizing data.
const (
	// StagehandHome is the hidden directory name where stagehand stores its
	// global configuration and logs.
	StagehandHome = ".stagehand"

	// StagingDir is the default staging root, relative to the project root.
	StagingDir = ".stagehand/staging"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Schema versions for persisted documents.
const (
	// WorkspaceSchemaVersion is the current version of the workspace metadata schema.
	WorkspaceSchemaVersion = 1

	// BaselineSchemaVersion is the current version of the baseline snapshot schema.
	BaselineSchemaVersion = 1
)

// Locking and I/O tuning.
const (
	// LockTimeout is the maximum duration to wait for a metadata file lock.
	LockTimeout = 5 * time.Second

	// LockRetryInterval is how long to wait between lock acquisition attempts.
	LockRetryInterval = 50 * time.Millisecond

	// DefaultFingerprintConcurrency bounds parallel hashing during baseline
	// capture and conflict detection.
	DefaultFingerprintConcurrency = 8

	// DefaultStageTimeout is the maximum duration a single stage executor may run.
	DefaultStageTimeout = 30 * time.Minute

	// MaxVersionLength bounds target version strings, which double as directory names.
	MaxVersionLength = 128

	// MaxDiffLines caps the combined line count rendered by inspect diffs.
	MaxDiffLines = 5000
)

// Log rotation settings for the CLI log file.
const (
	// CLILogFileName is the name of the global CLI log file.
	CLILogFileName = "stagehand.log"

	// LogMaxSizeMB is the size in megabytes at which the log file rotates.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress controls gzip compression of rotated log files.
	LogCompress = true
)

// Environment variables exported to stage executor subprocesses.
const (
	// EnvOutputDir carries the absolute category output directory for a stage.
	EnvOutputDir = "STAGEHAND_OUTPUT_DIR"

	// EnvWorkspaceDir carries the workspace root. Every category directory
	// under it is committed, so a stage may also populate categories it does not own.
	EnvWorkspaceDir = "STAGEHAND_WORKSPACE_DIR"

	// EnvVersion carries the target version of the run.
	EnvVersion = "STAGEHAND_VERSION"

	// EnvPreviousVersion carries the previous version, empty when there is none.
	EnvPreviousVersion = "STAGEHAND_PREVIOUS_VERSION"

	// EnvStage carries the 1-based stage index.
	EnvStage = "STAGEHAND_STAGE"
)
