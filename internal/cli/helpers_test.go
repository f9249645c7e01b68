package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newProject creates a temporary project directory, makes it the working
// directory and isolates HOME and STAGEHAND_HOME so no real config or log
// file is touched. It returns the project directory.
func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	t.Setenv(EnvHome, t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Chdir(dir)
	return dir
}

// writeProjectConfig writes .stagehand/config.yaml in the working directory.
func writeProjectConfig(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(".stagehand", 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(".stagehand", "config.yaml"), []byte(content), 0o600))
}

// writeFile creates a file relative to the working directory.
func writeFile(t *testing.T, rel, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(rel), 0o750))
	require.NoError(t, os.WriteFile(rel, []byte(content), 0o600))
}

// executeCLI runs the root command with args and returns what it wrote to stdout.
func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "test"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	CloseLogFile()
	return out.String(), err
}

// decodeJSON unmarshals a command's JSON output into a generic map.
func decodeJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &m), "output: %s", output)
	return m
}

// stubConfirm replaces the confirmation prompt for the duration of a test.
func stubConfirm(t *testing.T, answer bool, err error) *int {
	t.Helper()
	calls := 0
	original := confirmFunc
	confirmFunc = func(string, string) (bool, error) {
		calls++
		return answer, err
	}
	t.Cleanup(func() { confirmFunc = original })
	return &calls
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
