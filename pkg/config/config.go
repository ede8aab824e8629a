// Package config defines the configuration types for binsplice.
// These are plain data structures; loading and merging live in
// internal/configloader.
package config

// OverlapPolicy controls what happens when patch ranges overlap.
type OverlapPolicy string

const (
	// OverlapReject fails the run before anything is written.
	OverlapReject OverlapPolicy = "reject"

	// OverlapAllow applies overlapping ranges as given; the output is
	// unspecified.
	OverlapAllow OverlapPolicy = "allow"
)

// IsValid returns true if the policy is a known value.
func (p OverlapPolicy) IsValid() bool {
	switch p {
	case OverlapReject, OverlapAllow:
		return true
	default:
		return false
	}
}

// OutputFormat specifies how patch results are reported.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// BackupsConfig controls backups of patched files.
type BackupsConfig struct {
	// Enabled is nil when unset so a file can turn backups off.
	Enabled *bool  `yaml:"enabled,omitempty"`
	Mode    string `yaml:"mode,omitempty"` // "sidecar" or "none"
}

// Config is the root configuration structure.
type Config struct {
	// Overlaps is the policy for overlapping patch ranges.
	Overlaps OverlapPolicy `yaml:"overlaps,omitempty"`

	// Backups configures backups taken before patching in place.
	Backups BackupsConfig `yaml:"backups"`

	// Format is the default report format.
	Format OutputFormat `yaml:"format,omitempty"`

	// CLI-level options (not persisted to config files).

	// DryRun plans and reports without writing.
	DryRun bool `yaml:"-"`

	// NoBackups disables backups for this run.
	NoBackups bool `yaml:"-"`
}

// NewConfig returns a Config with defaults: overlaps rejected, sidecar
// backups on, text output.
func NewConfig() *Config {
	enabled := true
	return &Config{
		Overlaps: OverlapReject,
		Backups: BackupsConfig{
			Enabled: &enabled,
			Mode:    "sidecar",
		},
		Format: FormatText,
	}
}

// BackupsEnabled reports whether a backup should be taken, taking the
// CLI-level NoBackups override into account.
func (c *Config) BackupsEnabled() bool {
	if c.NoBackups || c.Backups.Mode == "none" {
		return false
	}
	return c.Backups.Enabled == nil || *c.Backups.Enabled
}
