//go:build !windows

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/logging"
)

func TestCommandExecutor_Success(t *testing.T) {
	out := t.TempDir()
	cmd := `mkdir -p nested && echo "$STAGEHAND_VERSION $STAGEHAND_PREVIOUS_VERSION $STAGEHAND_STAGE" > nested/info.txt && printf x > top.sh`

	var live bytes.Buffer
	exec := NewCommandExecutor(cmd, WithLiveOutput(&live))
	res, err := exec.Run(context.Background(), StageInput{Stage: 1, Version: "v2.0.0", PreviousVersion: "v1.0.0", OutputDir: out})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"nested/info.txt", "top.sh"}, res.FilesWritten)

	data, err := os.ReadFile(filepath.Join(out, "nested", "info.txt")) //#nosec G304 -- test file path
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0 v1.0.0 1\n", string(data))
}

func TestCommandExecutor_WorkspaceDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "agents"), 0o750))
	require.NoError(t, os.MkdirAll(out, 0o750))

	exec := NewCommandExecutor(`printf bot > "$STAGEHAND_WORKSPACE_DIR/agents/bot.md" && printf x > own.sh`)
	res, err := exec.Run(context.Background(), StageInput{Stage: 1, Version: "v2.0.0", OutputDir: out, WorkspaceDir: root})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"own.sh"}, res.FilesWritten)
	assert.FileExists(t, filepath.Join(root, "agents", "bot.md"))
}

func TestCommandExecutor_Failure(t *testing.T) {
	exec := NewCommandExecutor(`echo "syntax error near line 3" >&2; exit 3`)
	res, err := exec.Run(context.Background(), StageInput{Stage: 1, Version: "v2.0.0", OutputDir: t.TempDir()})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "exit status 3")
	assert.Contains(t, res.Error, "syntax error near line 3")
	assert.Empty(t, res.FilesWritten)
}

func TestCommandExecutor_FailureRedactsSecrets(t *testing.T) {
	secret := "ghp_" + "abcdefghijTESTONLYklmnopqrst"
	exec := NewCommandExecutor(`echo "auth failed for ` + secret + `" >&2; exit 1`)
	res, err := exec.Run(context.Background(), StageInput{Stage: 1, Version: "v2.0.0", OutputDir: t.TempDir()})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.NotContains(t, res.Error, secret)
	assert.Contains(t, res.Error, logging.RedactedValue)
}

func TestCommandExecutor_Timeout(t *testing.T) {
	exec := NewCommandExecutor("sleep 5", WithTimeout(50*time.Millisecond))
	res, err := exec.Run(context.Background(), StageInput{Stage: 2, Version: "v2.0.0", OutputDir: t.TempDir()})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestDescribeFailure_TruncatesStderr(t *testing.T) {
	long := make([]byte, maxErrorTail*2)
	for i := range long {
		long[i] = 'e'
	}
	msg := describeFailure(assert.AnError, 1, string(long), nil)
	assert.Contains(t, msg, "exit status 1")
	assert.Less(t, len(msg), maxErrorTail+100)
}

func TestDescribeFailure_TruncatesOnRuneBoundary(t *testing.T) {
	stderr := strings.Repeat("€", maxErrorTail)
	msg := describeFailure(assert.AnError, 1, stderr, nil)

	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, "€"))
	assert.Contains(t, msg, ": ...€")
	assert.LessOrEqual(t, len(msg), len("exit status 1 (")+len(assert.AnError.Error())+len("): ...")+maxErrorTail)
}
