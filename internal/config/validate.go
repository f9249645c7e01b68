package config

import (
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/errors"
)

// maxConcurrency caps baseline.concurrency.
const maxConcurrency = 256

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - staging.root and production.root must not be empty
//   - production.categories must name exactly four distinct directories
//   - exactly two stages, each with a distinct known category and a positive timeout
//   - baseline.concurrency must be between 1 and 256
//   - recovery.orphan_scope must be "global" or "version"
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if cfg.Staging.Root == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "staging.root must not be empty")
	}
	if err := validateProduction(&cfg.Production); err != nil {
		return err
	}
	if err := validateStages(cfg.Stages, cfg.Production.Categories); err != nil {
		return err
	}
	if cfg.Baseline.Concurrency < 1 || cfg.Baseline.Concurrency > maxConcurrency {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"baseline.concurrency must be between 1 and %d, got %d", maxConcurrency, cfg.Baseline.Concurrency)
	}
	switch constants.OrphanScope(cfg.Recovery.OrphanScope) {
	case constants.OrphanScopeGlobal, constants.OrphanScopeVersion:
	default:
		return errors.Wrapf(errors.ErrConfigInvalid,
			"recovery.orphan_scope must be %q or %q, got %q",
			constants.OrphanScopeGlobal, constants.OrphanScopeVersion, cfg.Recovery.OrphanScope)
	}
	return nil
}

func validateProduction(cfg *ProductionConfig) error {
	if cfg.Root == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "production.root must not be empty")
	}
	if len(cfg.Categories) != constants.CategoryCount {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"production.categories must list %d directories, got %d", constants.CategoryCount, len(cfg.Categories))
	}
	seen := make(map[string]bool, len(cfg.Categories))
	for _, c := range cfg.Categories {
		if !isPlainName(c) {
			return errors.Wrapf(errors.ErrConfigInvalid, "production.categories: %q is not a plain directory name", c)
		}
		if seen[c] {
			return errors.Wrapf(errors.ErrConfigInvalid, "production.categories: %q listed twice", c)
		}
		seen[c] = true
	}
	return nil
}

func validateStages(stages []StageConfig, categories []string) error {
	if len(stages) != 2 {
		return errors.Wrapf(errors.ErrConfigInvalid, "stages must list exactly 2 stages, got %d", len(stages))
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c] = true
	}

	used := make(map[string]int, len(stages))
	for i, s := range stages {
		n := i + 1
		if !known[s.Category] {
			return errors.Wrapf(errors.ErrConfigInvalid, "stages[%d].category %q is not a production category", n, s.Category)
		}
		if prev, dup := used[s.Category]; dup {
			return errors.Wrapf(errors.ErrConfigInvalid, "stages[%d] and stages[%d] both write %q", prev, n, s.Category)
		}
		used[s.Category] = n
		if s.Timeout <= 0 {
			return errors.Wrapf(errors.ErrConfigInvalid, "stages[%d].timeout must be positive, got %s", n, s.Timeout)
		}
	}
	return nil
}

// isPlainName reports whether name is a single, non-special path element.
func isPlainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' {
			return false
		}
	}
	return true
}
