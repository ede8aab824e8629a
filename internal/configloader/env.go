package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/yaklabco/binsplice/pkg/config"
)

// EnvPrefix is the prefix for all binsplice environment variables.
const EnvPrefix = "BINSPLICE_"

type envVar struct {
	suffix      string
	description string
	apply       func(cfg *config.Config, value string) error
}

//nolint:gochecknoglobals // Read-only lookup table.
var envVars = []envVar{
	{"OVERLAPS", "Overlap policy: reject or allow", func(cfg *config.Config, v string) error {
		cfg.Overlaps = config.OverlapPolicy(v)
		return nil
	}},
	{"FORMAT", "Output format: text or json", func(cfg *config.Config, v string) error {
		cfg.Format = config.OutputFormat(v)
		return nil
	}},
	{"BACKUPS_MODE", "Backup mode: sidecar or none", func(cfg *config.Config, v string) error {
		cfg.Backups.Mode = v
		return nil
	}},
	{"BACKUPS_ENABLED", "Take a backup before patching in place: true or false", func(cfg *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Backups.Enabled = &b
		return nil
	}},
	{"DRY_RUN", "Plan without writing: true or false", func(cfg *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.DryRun = b
		return nil
	}},
	{"NO_BACKUPS", "Disable backups: true or false", func(cfg *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.NoBackups = b
		return nil
	}},
}

// LoadFromEnv applies BINSPLICE_* environment overrides to cfg.
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for _, ev := range envVars {
		name := EnvPrefix + ev.suffix
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := ev.apply(cfg, value); err != nil {
			return fmt.Errorf("invalid value for %s: %q: %w", name, value, err)
		}
	}

	return nil
}

// ListEnvVars returns every supported environment variable with its
// description, sorted by name.
func ListEnvVars() [][2]string {
	out := make([][2]string, 0, len(envVars))
	for _, ev := range envVars {
		out = append(out, [2]string{EnvPrefix + ev.suffix, ev.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
