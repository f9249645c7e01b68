// Package config provides configuration management for stagehand with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (STAGEHAND_* prefix)
//  3. Project config (.stagehand/config.yaml, or the file named by --config)
//  4. Global config (~/.stagehand/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import (
	"time"

	"github.com/mrz1836/stagehand/internal/constants"
)

// Config is the root configuration structure for stagehand.
type Config struct {
	// Staging contains settings for where workspaces are created.
	Staging StagingConfig `yaml:"staging" json:"staging" mapstructure:"staging"`

	// Production describes the tree that committed files land in.
	Production ProductionConfig `yaml:"production" json:"production" mapstructure:"production"`

	// Stages configures the two pipeline stages, in order.
	Stages []StageConfig `yaml:"stages" json:"stages" mapstructure:"stages"`

	// Baseline contains settings for baseline capture and conflict detection.
	Baseline BaselineConfig `yaml:"baseline" json:"baseline" mapstructure:"baseline"`

	// Recovery contains settings for orphan detection.
	Recovery RecoveryConfig `yaml:"recovery" json:"recovery" mapstructure:"recovery"`
}

// StagingConfig contains settings for the staging root.
type StagingConfig struct {
	// Root is the directory holding one subdirectory per workspace.
	// Default: ".stagehand/staging"
	Root string `yaml:"root" json:"root" mapstructure:"root"`
}

// ProductionConfig describes the production tree.
type ProductionConfig struct {
	// Root is the directory containing the category subtrees.
	// Default: "."
	Root string `yaml:"root" json:"root" mapstructure:"root"`

	// Categories names the four top-level category directories.
	// Default: scripts, commands, agents, skills
	Categories []string `yaml:"categories" json:"categories" mapstructure:"categories"`
}

// CategoryList returns the configured categories as typed values.
func (p ProductionConfig) CategoryList() []constants.Category {
	out := make([]constants.Category, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, constants.Category(c))
	}
	return out
}

// StageConfig configures one pipeline stage.
type StageConfig struct {
	// Name labels the stage in logs and output.
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Command is run with sh -c inside the stage's output directory.
	// Empty means the stage must be supplied programmatically.
	Command string `yaml:"command" json:"command" mapstructure:"command"`

	// Category is the category directory the stage writes into.
	Category string `yaml:"category" json:"category" mapstructure:"category"`

	// Timeout bounds how long the command may run.
	// Default: 30m
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// BaselineConfig contains baseline settings.
type BaselineConfig struct {
	// Concurrency bounds how many files are fingerprinted at once.
	// Default: 8
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
}

// RecoveryConfig contains orphan detection settings.
type RecoveryConfig struct {
	// OrphanScope is "global" (any orphan blocks a run) or "version"
	// (only an orphan for the same target version blocks).
	// Default: "global"
	OrphanScope string `yaml:"orphan_scope" json:"orphan_scope" mapstructure:"orphan_scope"`
}
