// Package configloader resolves the binsplice configuration from defaults,
// config files, environment variables and CLI flags.
package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaklabco/binsplice/internal/logging"
	"github.com/yaklabco/binsplice/pkg/config"
	"github.com/yaklabco/binsplice/pkg/fsutil"
)

// configHeader is written above the YAML body by WriteDefault.
const configHeader = `# binsplice configuration
# Keys: overlaps (reject|allow), backups.enabled, backups.mode (sidecar|none), format (text|json)`

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// WorkingDir is where the project config search starts.
	// Defaults to the current working directory.
	WorkingDir string

	// ExplicitPath is a config file given via --config. It is loaded after
	// the discovered files.
	ExplicitPath string

	IgnoreSystemConfig  bool
	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// CLIConfig holds values from CLI flags; these take highest precedence.
	CLIConfig *config.Config
}

// LoadResult contains the resolved configuration and metadata.
type LoadResult struct {
	Config *config.Config

	Paths *ConfigPaths

	// LoadedFrom lists the files actually loaded, lowest precedence first.
	LoadedFrom []string

	// Warnings contains non-fatal findings.
	Warnings []string
}

// Load resolves the final configuration by merging all sources.
// Precedence (highest to lowest):
//  1. CLI flags (opts.CLIConfig)
//  2. Environment variables (BINSPLICE_*)
//  3. Explicit config file (opts.ExplicitPath)
//  4. Project config (.binsplice.yml upward search)
//  5. User config ($XDG_CONFIG_HOME/binsplice/config.yaml)
//  6. System config (/etc/binsplice/config.yaml)
//  7. Defaults
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	logger := logging.FromContext(ctx)

	workDir := opts.WorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}

	paths, err := DiscoverPaths(ctx, workDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath

	result := &LoadResult{Paths: paths}
	cfg := config.NewConfig()

	layers := []struct {
		name   string
		path   string
		ignore bool
	}{
		{"system", paths.System, opts.IgnoreSystemConfig},
		{"user", paths.User, opts.IgnoreUserConfig},
		{"project", paths.Project, opts.IgnoreProjectConfig},
		{"explicit", paths.Explicit, false},
	}

	for _, layer := range layers {
		if layer.ignore || layer.path == "" {
			continue
		}

		fileCfg, err := loadConfigFile(layer.path)
		if err != nil {
			return nil, fmt.Errorf("load %s config: %w", layer.name, err)
		}

		validation := ValidateWithFile(fileCfg, layer.path)
		if err := validation.Err(); err != nil {
			return nil, err
		}
		for _, w := range validation.Warnings {
			result.Warnings = append(result.Warnings, w.Error())
		}

		cfg = merge(cfg, fileCfg)
		result.LoadedFrom = append(result.LoadedFrom, layer.path)
		logger.Debug("loaded config", logging.FieldSource, layer.name, logging.FieldPath, layer.path)
	}

	if !opts.IgnoreEnv {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("load environment: %w: %w", ErrInvalidConfig, err)
		}
	}

	cfg = merge(cfg, opts.CLIConfig)

	validation := Validate(cfg)
	if err := validation.Err(); err != nil {
		return nil, err
	}
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	result.Config = cfg
	return result, nil
}

func loadConfigFile(path string) (*config.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg, err := config.FromYAML(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrInvalidConfig, err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to dir/.binsplice.yml and
// returns its path. An existing file is only replaced when force is set.
func WriteDefault(ctx context.Context, dir string, force bool) (string, error) {
	path := filepath.Join(dir, ProjectConfigName)

	if !force && fileExists(path) {
		return "", fmt.Errorf("%s already exists: %w", path, os.ErrExist)
	}

	content, err := config.NewConfig().ToYAMLWithHeader(configHeader)
	if err != nil {
		return "", err
	}

	if err := fsutil.WriteAtomic(ctx, path, content, fsutil.DefaultFileMode); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
