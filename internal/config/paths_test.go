package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/stagehand/internal/constants"
)

func TestGlobalConfigPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir, err := GlobalConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, constants.StagehandHome), dir)

	path, err := GlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, constants.StagehandHome, "config.yaml"), path)

	logs, err := LogDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, constants.StagehandHome, constants.LogsDir), logs)
}

func TestProjectConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".stagehand", "config.yaml"), ProjectConfigPath())
}
