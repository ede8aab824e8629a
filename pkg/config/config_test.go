package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/binsplice/pkg/config"
)

func boolPtr(b bool) *bool { return &b }

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, config.OverlapReject, cfg.Overlaps)
	assert.Equal(t, config.FormatText, cfg.Format)
	assert.Equal(t, "sidecar", cfg.Backups.Mode)
	assert.True(t, cfg.BackupsEnabled())
}

func TestBackupsEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{"unset defaults to on", config.Config{}, true},
		{"explicitly off", config.Config{Backups: config.BackupsConfig{Enabled: boolPtr(false)}}, false},
		{"mode none", config.Config{Backups: config.BackupsConfig{Enabled: boolPtr(true), Mode: "none"}}, false},
		{"cli override", config.Config{NoBackups: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.BackupsEnabled())
		})
	}
}

func TestOverlapPolicy_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, config.OverlapReject.IsValid())
	assert.True(t, config.OverlapAllow.IsValid())
	assert.False(t, config.OverlapPolicy("merge").IsValid())
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Overlaps = config.OverlapAllow
	cfg.DryRun = true

	data, err := cfg.ToYAMLWithHeader("# binsplice configuration")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# binsplice configuration\n\n")
	assert.Contains(t, string(data), "overlaps: allow")
	assert.NotContains(t, string(data), "dry")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, config.OverlapAllow, parsed.Overlaps)
	require.NotNil(t, parsed.Backups.Enabled)
	assert.True(t, *parsed.Backups.Enabled)
	assert.False(t, parsed.DryRun, "CLI-only fields are not persisted")
}

func TestFromYAML_Invalid(t *testing.T) {
	t.Parallel()

	_, err := config.FromYAML([]byte("overlaps: [unterminated"))
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.NoBackups = true

	clone := cfg.Clone()
	*clone.Backups.Enabled = false

	assert.True(t, *cfg.Backups.Enabled, "clone must not share backup flag")
	assert.True(t, clone.NoBackups)
	assert.Nil(t, (*config.Config)(nil).Clone())
}
