package workspace

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/mrz1836/stagehand/internal/constants"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

// validVersionRegex matches version strings that are safe to use as a
// directory name: they start alphanumeric and contain only [A-Za-z0-9._+-].
var validVersionRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// ValidateVersion checks that a target version can identify a workspace.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("version cannot be empty: %w", sherrors.ErrInvalidVersion)
	}
	if len(version) > constants.MaxVersionLength {
		return fmt.Errorf("version too long (max %d characters): %w", constants.MaxVersionLength, sherrors.ErrInvalidVersion)
	}
	if !validVersionRegex.MatchString(version) {
		return fmt.Errorf("version %q contains invalid characters: %w", version, sherrors.ErrInvalidVersion)
	}
	if strings.Contains(version, "..") {
		return fmt.Errorf("version %q contains '..': %w", version, sherrors.ErrInvalidVersion)
	}
	return nil
}

// ValidateVersionPair validates a target version and an optional previous
// version. When both parse as semantic versions the previous one must be
// strictly lower; otherwise no ordering is imposed.
func ValidateVersionPair(version string, previous *string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}
	if previous == nil {
		return nil
	}
	if err := ValidateVersion(*previous); err != nil {
		return fmt.Errorf("previous %w", err)
	}
	if *previous == version {
		return fmt.Errorf("previous version equals target %q: %w", version, sherrors.ErrInvalidVersion)
	}

	target, prev := canonicalSemver(version), canonicalSemver(*previous)
	if target != "" && prev != "" && semver.Compare(prev, target) >= 0 {
		return fmt.Errorf("previous version %s is not lower than %s: %w", *previous, version, sherrors.ErrInvalidVersion)
	}
	return nil
}

// canonicalSemver returns the canonical "vX.Y.Z" form, or "" when v is not
// a semantic version. A missing "v" prefix is tolerated.
func canonicalSemver(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
