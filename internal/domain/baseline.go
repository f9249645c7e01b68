package domain

import "time"

// Fingerprint identifies the content of one production path at a point in time.
// An absent path is {Exists: false} with no size or hash.
type Fingerprint struct {
	Exists bool   `json:"exists"`
	Size   int64  `json:"size,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

// AbsentFingerprint is the fingerprint of a path that does not exist.
func AbsentFingerprint() Fingerprint {
	return Fingerprint{}
}

// Equal reports whether two fingerprints describe the same content.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Exists == other.Exists && f.Size == other.Size && f.Hash == other.Hash
}

// String renders the fingerprint for logs and operator output.
func (f Fingerprint) String() string {
	if !f.Exists {
		return "absent"
	}
	return f.Hash
}

// BaselineSnapshot freezes the fingerprints of every production path a
// workspace might overwrite. It is captured once, right after the workspace is
// created and before any stage runs, and is never modified afterwards.
type BaselineSnapshot struct {
	Version       string                 `json:"version"`
	CapturedAt    time.Time              `json:"captured_at"`
	Entries       map[string]Fingerprint `json:"entries"`
	SchemaVersion int                    `json:"schema_version"`
}

// Len returns the number of snapshotted paths.
func (b *BaselineSnapshot) Len() int {
	return len(b.Entries)
}
