package workspace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/constants"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/testutil"
)

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "semver", version: "v2.0.0"},
		{name: "semver without prefix", version: "2.0.0"},
		{name: "prerelease", version: "v2.0.0-rc.1+build.5"},
		{name: "free form", version: "release_2026-10"},
		{name: "empty", version: "", wantErr: true},
		{name: "slash", version: "v1/2", wantErr: true},
		{name: "space", version: "v1 2", wantErr: true},
		{name: "leading dash", version: "-v1", wantErr: true},
		{name: "dot dot", version: "v1..2", wantErr: true},
		{name: "too long", version: strings.Repeat("a", constants.MaxVersionLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.version)
			if tt.wantErr {
				require.ErrorIs(t, err, sherrors.ErrInvalidVersion)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateVersionPair(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		previous *string
		wantErr  bool
	}{
		{name: "no previous", version: "v1.0.0"},
		{name: "ordered semver", version: "v2.0.0", previous: testutil.StrPtr("v1.9.3")},
		{name: "mixed prefix", version: "2.0.0", previous: testutil.StrPtr("v1.0.0")},
		{name: "non semver previous", version: "v2.0.0", previous: testutil.StrPtr("nightly")},
		{name: "equal", version: "v2.0.0", previous: testutil.StrPtr("v2.0.0"), wantErr: true},
		{name: "reversed", version: "v1.0.0", previous: testutil.StrPtr("v1.0.1"), wantErr: true},
		{name: "same after canonicalization", version: "v2", previous: testutil.StrPtr("v2.0.0"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersionPair(tt.version, tt.previous)
			if tt.wantErr {
				require.ErrorIs(t, err, sherrors.ErrInvalidVersion)
				return
			}
			assert.NoError(t, err)
		})
	}
}
