package domain

import "github.com/mrz1836/stagehand/internal/constants"

// ManifestEntry maps one staged file to its production destination.
type ManifestEntry struct {
	// Path is the slash path shared by both sides: relative to the workspace
	// root for the staged file and to the production root for its destination.
	Path string `json:"path"`

	StagedPath     string             `json:"staged_path"`
	ProductionPath string             `json:"production_path"`
	Category       constants.Category `json:"category"`
}

// Conflict is a baselined production path whose content changed out of band.
type Conflict struct {
	ProductionPath string      `json:"production_path"`
	Recorded       Fingerprint `json:"recorded"`
	Current        Fingerprint `json:"current"`

	// Reason is set when the current fingerprint could not be computed.
	Reason string `json:"reason,omitempty"`
}
