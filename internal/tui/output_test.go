package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sherrors "github.com/mrz1836/stagehand/internal/errors"
)

func TestNewOutput_SelectsImplementation(t *testing.T) {
	var buf bytes.Buffer

	_, isJSON := NewOutput(&buf, FormatJSON).(*JSONOutput)
	assert.True(t, isJSON)

	_, isTTY := NewOutput(&buf, FormatText).(*TTYOutput)
	assert.True(t, isTTY)

	_, isTTY = NewOutput(&buf, "").(*TTYOutput)
	assert.True(t, isTTY)
}

func TestTTYOutput_Messages(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Success("committed v2")
	out.Warning("production drifted")
	out.Info("2 files staged")

	output := buf.String()
	assert.Contains(t, output, "✓ committed v2")
	assert.Contains(t, output, "⚠ production drifted")
	assert.Contains(t, output, "ℹ 2 files staged")
}

func TestTTYOutput_ErrorWithSuggestion(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewTTYOutput(&buf)
	out.Error(fmt.Errorf("commit v2: %w", sherrors.ErrConflict))

	output := buf.String()
	assert.Contains(t, output, "✗ commit v2: production changed since baseline")
	assert.Contains(t, output, "▸ Try:")
	assert.Contains(t, output, "--force")
}

func TestTTYOutput_ErrorWithoutSuggestion(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Error(fmt.Errorf("disk on fire")) //nolint:err113 // test error

	assert.Contains(t, buf.String(), "disk on fire")
	assert.NotContains(t, buf.String(), "Try:")
}

func TestTTYOutput_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewTTYOutput(&buf)
	out.Table(
		[]string{"VERSION", "STATUS"},
		[][]string{
			{"v1.0.0", "ready"},
			{"v10.0.0-rc.1", "created"},
			{"short"},
		},
	)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "VERSION       STATUS"))
	assert.True(t, strings.HasPrefix(lines[2], "v10.0.0-rc.1  created"))
	assert.Equal(t, "short", lines[3])
}

func TestTTYOutput_TableTruncatesLongCells(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Table([]string{"PATH"}, [][]string{{strings.Repeat("a", MaxCellWidth+20)}})

	assert.Contains(t, buf.String(), "…")
	assert.NotContains(t, buf.String(), strings.Repeat("a", MaxCellWidth))
}

func TestTTYOutput_TableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTTYOutput(&buf).Table(nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}

func TestJSONOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)
	out.Success("done")

	var msg map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &msg))
	assert.Equal(t, "success", msg["type"])
	assert.Equal(t, "done", msg["message"])
}

func TestJSONOutput_Error(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Error(fmt.Errorf("run v2: %w", sherrors.ErrOrphanBlocking))

	var msg map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &msg))
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "run v2: unresolved orphaned workspaces", msg["message"])
	assert.Equal(t, "unresolved orphaned workspaces", msg["details"])
	assert.Contains(t, msg["suggestion"], "stagehand recover")
}

func TestJSONOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table([]string{"version", "status"}, [][]string{{"v1", "ready"}, {"v2"}})

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "ready", rows[0]["status"])
	assert.Empty(t, rows[1]["status"])
}

func TestJSONOutput_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table(nil, nil)
	assert.JSONEq(t, "[]", buf.String())
}

func TestJSONOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONOutput(&buf).JSON(map[string]any{"success": true}))
	assert.JSONEq(t, `{"success": true}`, buf.String())
}
