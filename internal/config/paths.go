package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/errors"
)

// configFileName is the name of both the global and project config files.
const configFileName = "config.yaml"

// GlobalConfigDir returns the path to the global stagehand directory.
// This is typically ~/.stagehand on Unix systems.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.StagehandHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, configFileName), nil
}

// ProjectConfigPath returns the path to the project configuration file,
// relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(constants.StagehandHome, configFileName)
}

// LogDir returns the directory for the CLI log file.
func LogDir() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}
