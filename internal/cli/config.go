package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/binsplice/internal/configloader"
	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/config"
)

// loadConfig resolves the configuration for a command, with cliCfg holding
// values from that command's flags.
func loadConfig(cmd *cobra.Command, cliCfg *config.Config) (*config.Config, error) {
	logger := logging.FromContext(cmd.Context())

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	result, err := configloader.Load(cmd.Context(), configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w: %w", configloader.ErrInvalidConfig, err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if len(result.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", "files", result.LoadedFrom)
	}

	return result.Config, nil
}

// colorMode returns the --color flag value, defaulting to auto.
func colorMode(cmd *cobra.Command) string {
	mode, err := cmd.Flags().GetString("color")
	if err != nil || mode == "" {
		return "auto"
	}
	return mode
}
