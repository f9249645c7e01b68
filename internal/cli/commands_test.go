package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/errors"
)

func workspaceDir(version string) string {
	return filepath.Join(".stagehand", "staging", version)
}

func TestInitCommand_JSON(t *testing.T) {
	newProject(t)

	output, err := executeCLI(t, "init", "v2.0.0", "--previous", "v1.0.0", "-o", "json")
	require.NoError(t, err)

	resp := decodeJSON(t, output)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "v2.0.0", resp["version"])
	assert.Equal(t, "v1.0.0", resp["previous_version"])
	assert.Equal(t, "created", resp["status"])
	assert.NotEmpty(t, resp["run_id"])

	dirs, ok := resp["dirs"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, dirs, 4)
	for _, c := range []string{"scripts", "commands", "agents", "skills"} {
		assert.Contains(t, dirs, c)
	}

	assert.True(t, exists(filepath.Join(workspaceDir("v2.0.0"), "workspace.json")))
	assert.True(t, exists(filepath.Join(workspaceDir("v2.0.0"), "baseline.json")))
}

func TestInitCommand_Text(t *testing.T) {
	newProject(t)

	output, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)
	assert.Contains(t, output, "Workspace v2.0.0 created")
	assert.Contains(t, output, "CATEGORY")
	assert.Contains(t, output, "scripts")
}

func TestInitCommand_InvalidVersion(t *testing.T) {
	newProject(t)

	output, err := executeCLI(t, "init", "../escape", "-o", "json")
	require.ErrorIs(t, err, errors.ErrInvalidVersion)
	require.ErrorIs(t, err, errors.ErrJSONErrorOutput)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	assert.Equal(t, false, decodeJSON(t, output)["success"])
}

func TestInitCommand_BlockedByOrphan(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "init", "v1.0.0")
	require.NoError(t, err)

	output, err := executeCLI(t, "init", "v2.0.0", "-o", "json")
	require.ErrorIs(t, err, errors.ErrOrphanBlocking)
	assert.Equal(t, ExitError, ExitCodeForError(err))

	resp := decodeJSON(t, output)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "orphan")
	assert.False(t, exists(workspaceDir("v2.0.0")))
}

func TestInitCommand_VersionScopeAllowsOtherVersions(t *testing.T) {
	newProject(t)
	writeProjectConfig(t, "recovery:\n  orphan_scope: version\n")

	_, err := executeCLI(t, "init", "v1.0.0")
	require.NoError(t, err)

	_, err = executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	_, err = executeCLI(t, "init", "v2.0.0")
	require.ErrorIs(t, err, errors.ErrOrphanBlocking)
}

func TestStatusCommand(t *testing.T) {
	newProject(t)

	output, err := executeCLI(t, "status", "-o", "json")
	require.NoError(t, err)
	resp := decodeJSON(t, output)
	assert.Equal(t, true, resp["success"])
	assert.Empty(t, resp["workspaces"])

	_, err = executeCLI(t, "init", "v2.0.0", "--previous", "v1.0.0")
	require.NoError(t, err)

	output, err = executeCLI(t, "status", "-o", "json")
	require.NoError(t, err)
	resp = decodeJSON(t, output)

	workspaces, ok := resp["workspaces"].([]any)
	require.True(t, ok)
	require.Len(t, workspaces, 1)
	ws, ok := workspaces[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v2.0.0", ws["version"])
	assert.Equal(t, "v1.0.0", ws["previous_version"])
	assert.Equal(t, "created", ws["status"])

	output, err = executeCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, output, "v2.0.0")
	assert.Contains(t, output, "VERSION")
}

func TestRecoverCommand_Inspect(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	output, err := executeCLI(t, "recover", "v2.0.0", "inspect", "-o", "json")
	require.NoError(t, err)

	resp := decodeJSON(t, output)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "inspect", resp["action"])

	inspection, ok := resp["inspection"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v2.0.0", inspection["version"])
	assert.Equal(t, "created", inspection["status"])
	assert.True(t, exists(workspaceDir("v2.0.0")))
}

func TestRecoverCommand_InspectByPath(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	output, err := executeCLI(t, "recover", workspaceDir("v2.0.0"), "inspect")
	require.NoError(t, err)
	assert.Contains(t, output, "Workspace v2.0.0")
}

func TestRecoverCommand_CommitRequiresFinishedStages(t *testing.T) {
	newProject(t)
	calls := stubConfirm(t, true, nil)

	_, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	_, err = executeCLI(t, "recover", "v2.0.0", "commit")
	require.ErrorIs(t, err, errors.ErrRecovery)
	require.ErrorIs(t, err, errors.ErrInvalidStatus)
	assert.Equal(t, 1, *calls)
	assert.True(t, exists(workspaceDir("v2.0.0")))
}

func TestRecoverCommand_RollbackJSONNeedsYes(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	_, err = executeCLI(t, "recover", "v2.0.0", "rollback", "-o", "json")
	require.ErrorIs(t, err, errors.ErrNonInteractiveMode)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	assert.True(t, exists(workspaceDir("v2.0.0")))

	output, err := executeCLI(t, "recover", "v2.0.0", "rollback", "-o", "json", "--yes")
	require.NoError(t, err)
	assert.Equal(t, true, decodeJSON(t, output)["success"])
	assert.False(t, exists(workspaceDir("v2.0.0")))

	output, err = executeCLI(t, "status", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeJSON(t, output)["workspaces"])
}

func TestRecoverCommand_InvalidAction(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "recover", "v2.0.0", "destroy")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRecoverCommand_MissingWorkspace(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "recover", "v9.9.9", "inspect")
	require.ErrorIs(t, err, errors.ErrRecovery)
	require.ErrorIs(t, err, errors.ErrWorkspaceNotFound)
}

func TestRollbackCommand(t *testing.T) {
	t.Run("declined prompt keeps the workspace", func(t *testing.T) {
		newProject(t)
		calls := stubConfirm(t, false, nil)

		_, err := executeCLI(t, "init", "v2.0.0")
		require.NoError(t, err)

		_, err = executeCLI(t, "rollback", "v2.0.0")
		require.ErrorIs(t, err, errors.ErrOperationCanceled)
		assert.Equal(t, 1, *calls)
		assert.True(t, exists(workspaceDir("v2.0.0")))
	})

	t.Run("confirmed prompt removes the workspace", func(t *testing.T) {
		newProject(t)
		stubConfirm(t, true, nil)

		_, err := executeCLI(t, "init", "v2.0.0")
		require.NoError(t, err)

		output, err := executeCLI(t, "rollback", "v2.0.0")
		require.NoError(t, err)
		assert.Contains(t, output, "rolled back")
		assert.False(t, exists(workspaceDir("v2.0.0")))
	})

	t.Run("yes skips the prompt and is idempotent", func(t *testing.T) {
		newProject(t)
		calls := stubConfirm(t, false, nil)

		_, err := executeCLI(t, "init", "v2.0.0")
		require.NoError(t, err)

		output, err := executeCLI(t, "rollback", "v2.0.0", "--yes", "--reason", "bad build", "-o", "json")
		require.NoError(t, err)
		resp := decodeJSON(t, output)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "bad build", resp["reason"])

		_, err = executeCLI(t, "rollback", "v2.0.0", "--yes")
		require.NoError(t, err)
		assert.Equal(t, 0, *calls)
	})
}

func TestCommitCommand_MissingWorkspace(t *testing.T) {
	newProject(t)

	output, err := executeCLI(t, "commit", "v2.0.0", "-o", "json")
	require.ErrorIs(t, err, errors.ErrWorkspaceNotFound)

	resp := decodeJSON(t, output)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "v2.0.0", resp["version"])
}

func TestCommitCommand_RejectsUnfinishedWorkspace(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "init", "v2.0.0")
	require.NoError(t, err)

	_, err = executeCLI(t, "commit", "v2.0.0")
	require.ErrorIs(t, err, errors.ErrInvalidStatus)
	assert.True(t, exists(workspaceDir("v2.0.0")))
}

func TestRunCommand_WithoutStageCommands(t *testing.T) {
	newProject(t)

	_, err := executeCLI(t, "run", "v2.0.0", "-o", "json")
	require.ErrorIs(t, err, errors.ErrStageNotConfigured)
	assert.False(t, exists(workspaceDir("v2.0.0")))
}

func TestConfigShow(t *testing.T) {
	secret := "ghp_" + "abcdefghijTESTONLYklmnopqrst"
	config := `stages:
  - name: generate
    command: "GH_TOKEN=` + secret + ` ./gen.sh"
    category: scripts
  - name: assemble
    command: ./assemble.sh
    category: commands
`

	t.Run("yaml", func(t *testing.T) {
		newProject(t)
		writeProjectConfig(t, config)

		output, err := executeCLI(t, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, output, "# project config:")
		assert.Contains(t, output, "staging:")
		assert.Contains(t, output, "./assemble.sh")
		assert.NotContains(t, output, secret)
		assert.Contains(t, output, "[REDACTED]")
	})

	t.Run("json with overrides", func(t *testing.T) {
		newProject(t)
		writeProjectConfig(t, config)

		output, err := executeCLI(t, "config", "show", "-o", "json", "--staging-root", "/tmp/elsewhere")
		require.NoError(t, err)
		assert.NotContains(t, output, secret)

		resp := decodeJSON(t, output)
		staging, ok := resp["staging"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "/tmp/elsewhere", staging["root"])
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		newProject(t)

		_, err := executeCLI(t, "config", "show", "--config", "nope.yaml")
		require.Error(t, err)
	})
}
