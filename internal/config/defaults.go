package config

import (
	"github.com/mrz1836/stagehand/internal/constants"
)

// Default stage names.
const (
	DefaultStage1Name = "generate"
	DefaultStage2Name = "assemble"
)

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	categories := make([]string, 0, constants.CategoryCount)
	for _, c := range constants.DefaultCategories() {
		categories = append(categories, c.String())
	}

	return &Config{
		Staging: StagingConfig{
			Root: constants.StagingDir,
		},
		Production: ProductionConfig{
			Root:       ".",
			Categories: categories,
		},
		Stages: []StageConfig{
			{
				Name:     DefaultStage1Name,
				Category: constants.CategoryScripts.String(),
				Timeout:  constants.DefaultStageTimeout,
			},
			{
				Name:     DefaultStage2Name,
				Category: constants.CategoryCommands.String(),
				Timeout:  constants.DefaultStageTimeout,
			},
		},
		Baseline: BaselineConfig{
			Concurrency: constants.DefaultFingerprintConcurrency,
		},
		Recovery: RecoveryConfig{
			OrphanScope: string(constants.OrphanScopeGlobal),
		},
	}
}
