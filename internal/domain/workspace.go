package domain

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/mrz1836/stagehand/internal/constants"
)

// StageCount is the number of sequential stages in a pipeline run.
const StageCount = 2

// Workspace is the unit of staged work: one pipeline run targeting one version.
// It is persisted as workspace.json at the workspace root and that document is
// the authoritative state. In-memory copies are snapshots only.
//
// Example JSON representation:
//
//	{
//	    "version": "v2.0.0",
//	    "previous_version": "v1.4.0",
//	    "run_id": "6f1c5b9e-2f0b-4b8e-9a57-3d0f2c7e1a11",
//	    "path": "/repo/.stagehand/staging/v2.0.0",
//	    "status": "stage1-complete",
//	    "start_time": "2026-10-15T10:00:00Z",
//	    "updated_at": "2026-10-15T10:04:12Z",
//	    "stage_results": {
//	        "1": {"success": true, "files_written": ["deploy.sh"], "duration_ms": 4120}
//	    },
//	    "schema_version": 1
//	}
type Workspace struct {
	// Version is the target version and the workspace identity.
	Version string `json:"version"`

	// PreviousVersion is the diff base used to decide which production paths
	// to snapshot. It is never a content source. Nil when there is none.
	PreviousVersion *string `json:"previous_version"`

	// RunID correlates log lines for one run.
	RunID string `json:"run_id"`

	// Path is the workspace root directory.
	Path string `json:"path"`

	// Status is the current lifecycle state.
	Status WorkspaceStatus `json:"status"`

	// StartTime is when the workspace was created.
	StartTime time.Time `json:"start_time"`

	// UpdatedAt is when the metadata document was last written.
	UpdatedAt time.Time `json:"updated_at"`

	// StageResults maps the 1-based stage index to its recorded result.
	StageResults map[int]StageResult `json:"stage_results"`

	// Commit tracks a commit that has started moving files. Nil until the
	// first move; a retry resumes from it.
	Commit *CommitProgress `json:"commit,omitempty"`

	// SchemaVersion is the version of this document's schema.
	SchemaVersion int `json:"schema_version"`
}

// StageResult is what a stage executor reports for one stage.
// It is immutable once recorded on a workspace.
type StageResult struct {
	// Success reports whether the stage completed.
	Success bool `json:"success"`

	// FilesWritten lists files the stage produced, relative to its category
	// output directory.
	FilesWritten []string `json:"files_written"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`

	// DurationMs is the wall time the stage took.
	DurationMs int64 `json:"duration_ms"`
}

// CommitProgress records how far a commit got.
type CommitProgress struct {
	// StartedAt is when the first move was recorded.
	StartedAt time.Time `json:"started_at"`

	// Moved lists production-root-relative slash paths whose move finished.
	Moved []string `json:"moved"`

	// Moving is the path whose move was about to start at the last write.
	// Its move may or may not have happened.
	Moving string `json:"moving,omitempty"`
}

// Done reports whether rel was recorded as moved, or as the in-flight move.
func (p *CommitProgress) Done(rel string) bool {
	if p == nil {
		return false
	}
	if rel == p.Moving {
		return true
	}
	for _, m := range p.Moved {
		if m == rel {
			return true
		}
	}
	return false
}

// CategoryDir returns the absolute staging directory for a category.
func (w *Workspace) CategoryDir(category constants.Category) string {
	return filepath.Join(w.Path, category.String())
}

// MetadataPath returns the path of the workspace metadata document.
func (w *Workspace) MetadataPath() string {
	return filepath.Join(w.Path, constants.WorkspaceFileName)
}

// BaselinePath returns the path of the frozen baseline snapshot document.
func (w *Workspace) BaselinePath() string {
	return filepath.Join(w.Path, constants.BaselineFileName)
}

// PreviousVersionString returns the previous version or "" when unset.
func (w *Workspace) PreviousVersionString() string {
	if w.PreviousVersion == nil {
		return ""
	}
	return *w.PreviousVersion
}

// StageResult returns the recorded result for a stage, if any.
func (w *Workspace) StageResult(stage int) (StageResult, bool) {
	r, ok := w.StageResults[stage]
	return r, ok
}

// RecordedStages returns the stage indexes with recorded results, ascending.
func (w *Workspace) RecordedStages() []int {
	stages := make([]int, 0, len(w.StageResults))
	for s := range w.StageResults {
		stages = append(stages, s)
	}
	sort.Ints(stages)
	return stages
}

// TotalFilesWritten counts files reported across all recorded stages.
func (w *Workspace) TotalFilesWritten() int {
	n := 0
	for _, r := range w.StageResults {
		n += len(r.FilesWritten)
	}
	return n
}

// Clone returns a deep copy so callers can mutate a candidate update without
// touching the caller's snapshot.
func (w *Workspace) Clone() *Workspace {
	c := *w
	if w.PreviousVersion != nil {
		prev := *w.PreviousVersion
		c.PreviousVersion = &prev
	}
	c.StageResults = make(map[int]StageResult, len(w.StageResults))
	for k, v := range w.StageResults {
		files := make([]string, len(v.FilesWritten))
		copy(files, v.FilesWritten)
		v.FilesWritten = files
		c.StageResults[k] = v
	}
	if w.Commit != nil {
		progress := *w.Commit
		progress.Moved = append([]string(nil), w.Commit.Moved...)
		c.Commit = &progress
	}
	return &c
}
