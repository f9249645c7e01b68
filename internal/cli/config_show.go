package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/stagehand/internal/config"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/logging"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect stagehand configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after merging defaults, ~/.stagehand/config.yaml,
.stagehand/config.yaml (or --config), STAGEHAND_* environment variables and
command-line overrides. Secrets in stage commands are redacted.

Examples:
  stagehand config show
  stagehand config show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), outputFormat(cmd), flags)
		},
	})

	root.AddCommand(cmd)
}

func runConfigShow(ctx context.Context, w io.Writer, format string, flags *GlobalFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(GetLogger().WithContext(ctx), flags.ConfigFile, &config.Config{
		Staging:    config.StagingConfig{Root: flags.StagingRoot},
		Production: config.ProductionConfig{Root: flags.ProductionRoot},
	})
	if err != nil {
		return err
	}
	redactStageCommands(cfg)

	if format == OutputJSON {
		return writeJSON(w, cfg)
	}

	projectPath := flags.ConfigFile
	if projectPath == "" {
		projectPath = config.ProjectConfigPath()
	}
	_, _ = fmt.Fprintf(w, "# project config: %s%s\n", projectPath, missingSuffix(projectPath))
	if globalPath, err := config.GlobalConfigPath(); err == nil {
		_, _ = fmt.Fprintf(w, "# global config:  %s%s\n", globalPath, missingSuffix(globalPath))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func redactStageCommands(cfg *config.Config) {
	for i := range cfg.Stages {
		cfg.Stages[i].Command = logging.FilterSensitiveValue(cfg.Stages[i].Command)
	}
}

func missingSuffix(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not found)"
	}
	return ""
}
