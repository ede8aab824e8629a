package configloader

import "github.com/yaklabco/binsplice/pkg/config"

// merge combines two configurations with override taking precedence.
// Zero values in override leave base untouched; CLI-only booleans can only be
// switched on.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	result := base.Clone()

	if override.Overlaps != "" {
		result.Overlaps = override.Overlaps
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Backups.Mode != "" {
		result.Backups.Mode = override.Backups.Mode
	}
	if override.Backups.Enabled != nil {
		enabled := *override.Backups.Enabled
		result.Backups.Enabled = &enabled
	}
	if override.DryRun {
		result.DryRun = true
	}
	if override.NoBackups {
		result.NoBackups = true
	}

	return result
}

// MergeAll merges configurations in order, later ones winning.
func MergeAll(configs ...*config.Config) *config.Config {
	var result *config.Config
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}
