package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/stagehand/internal/constants"
)

func TestHasColorSupport(t *testing.T) {
	t.Run("NO_COLOR set to empty disables color", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		assert.False(t, HasColorSupport())
	})

	t.Run("dumb terminal disables color", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		assert.False(t, HasColorSupport())
	})
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status   constants.WorkspaceStatus
		expected string
	}{
		{constants.WorkspaceStatusCreated, "Created"},
		{constants.WorkspaceStatusStage1Complete, "Stage1 Complete"},
		{constants.WorkspaceStatusStage2Complete, "Stage2 Complete"},
		{constants.WorkspaceStatusReady, "Ready"},
		{constants.WorkspaceStatusCorrupt, "Corrupt"},
		{"", "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, StatusLabel(tc.status))
		})
	}
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "○", StatusIcon(constants.WorkspaceStatusCreated))
	assert.Equal(t, "●", StatusIcon(constants.WorkspaceStatusReady))
	assert.Equal(t, "✗", StatusIcon(constants.WorkspaceStatusCorrupt))
	assert.Equal(t, "?", StatusIcon("bogus"))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, ColorSuccess, StatusColor(constants.WorkspaceStatusReady))
	assert.Equal(t, ColorWarning, StatusColor(constants.WorkspaceStatusStage1Complete))
	assert.Equal(t, ColorError, StatusColor(constants.WorkspaceStatusCorrupt))
	assert.Equal(t, ColorMuted, StatusColor("bogus"))
}

func TestFormatStatus_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "◐ Stage2 Complete", FormatStatus(constants.WorkspaceStatusStage2Complete))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "…", truncate("abcdef", 1))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcd", padRight("abcd", 2))
}
