package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/errors"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// STAGEHAND_STAGING_ROOT for staging.root.
const envPrefix = "STAGEHAND"

// newViperInstance creates a Viper instance with the stagehand env prefix,
// key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults mirrors DefaultConfig on the Viper instance.
// Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("staging.root", d.Staging.Root)
	v.SetDefault("production.root", d.Production.Root)
	v.SetDefault("production.categories", d.Production.Categories)

	stages := make([]map[string]any, 0, len(d.Stages))
	for _, s := range d.Stages {
		stages = append(stages, map[string]any{
			"name":     s.Name,
			"command":  s.Command,
			"category": s.Category,
			"timeout":  s.Timeout.String(),
		})
	}
	v.SetDefault("stages", stages)

	v.SetDefault("baseline.concurrency", d.Baseline.Concurrency)
	v.SetDefault("recovery.orphan_scope", d.Recovery.OrphanScope)
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// viperDecoderOption decodes duration strings such as "30m".
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	applyStageDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from the global config, the project config, the
// environment, and defaults. Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, "")
}

// LoadFile is Load with an explicit project-level config file. An empty
// path uses .stagehand/config.yaml in the working directory.
func LoadFile(ctx context.Context, configFile string) (*Config, error) {
	globalPath, err := GlobalConfigPath()
	if err != nil {
		globalPath = ""
	}

	projectPath := configFile
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	} else if _, statErr := os.Stat(projectPath); statErr != nil {
		return nil, errors.Wrapf(statErr, "failed to read config file %s", projectPath)
	}

	cfg, err := LoadFromPaths(ctx, projectPath, globalPath)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("staging.root", cfg.Staging.Root).
		Str("production.root", cfg.Production.Root).
		Str("recovery.orphan_scope", cfg.Recovery.OrphanScope).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher precedence than globalConfigPath; either may
// be empty or missing to skip that layer.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// LoadWithOverrides loads configuration and applies CLI flag overrides,
// which have the highest precedence. Only non-zero override values apply.
func LoadWithOverrides(ctx context.Context, configFile string, overrides *Config) (*Config, error) {
	cfg, err := LoadFile(ctx, configFile)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// applyStageDefaults fills in the name and timeout of stages listed in a
// config file, since a list in a file replaces the default list wholesale.
func applyStageDefaults(cfg *Config) {
	for i := range cfg.Stages {
		if cfg.Stages[i].Name == "" {
			cfg.Stages[i].Name = fmt.Sprintf("stage%d", i+1)
		}
		if cfg.Stages[i].Timeout == 0 {
			cfg.Stages[i].Timeout = constants.DefaultStageTimeout
		}
	}
}

// applyOverrides merges non-zero override values into cfg.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Staging.Root != "" {
		cfg.Staging.Root = overrides.Staging.Root
	}
	if overrides.Production.Root != "" {
		cfg.Production.Root = overrides.Production.Root
	}
	if overrides.Recovery.OrphanScope != "" {
		cfg.Recovery.OrphanScope = overrides.Recovery.OrphanScope
	}
	if overrides.Baseline.Concurrency != 0 {
		cfg.Baseline.Concurrency = overrides.Baseline.Concurrency
	}
}
