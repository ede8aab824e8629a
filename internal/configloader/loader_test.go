package configloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/binsplice/pkg/config"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func isolated(dir string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		IgnoreEnv:          true,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, config.OverlapReject, result.Config.Overlaps)
	assert.Equal(t, config.FormatText, result.Config.Format)
	assert.True(t, result.Config.BackupsEnabled())
	assert.Empty(t, result.LoadedFrom)
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, ".binsplice.yml", "overlaps: allow\nbackups:\n  enabled: false\n")

	result, err := Load(context.Background(), isolated(dir))
	require.NoError(t, err)

	assert.Equal(t, config.OverlapAllow, result.Config.Overlaps)
	assert.False(t, result.Config.BackupsEnabled())
	assert.Equal(t, "sidecar", result.Config.Backups.Mode, "unset keys keep defaults")
	assert.Equal(t, []string{path}, result.LoadedFrom)
}

func TestLoad_ProjectConfigUpwardSearch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeConfig(t, root, ".binsplice.yml", "format: json\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	result, err := Load(context.Background(), isolated(nested))
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, result.Config.Format)
}

func TestFindProjectConfig_StopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeConfig(t, outer, ".binsplice.yml", "format: json\n")

	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, err := FindProjectConfig(context.Background(), repo)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoad_ExplicitOverridesProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".binsplice.yml", "format: json\noverlaps: allow\n")
	explicit := writeConfig(t, dir, "custom.yml", "format: text\n")

	opts := isolated(dir)
	opts.ExplicitPath = explicit

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, config.FormatText, result.Config.Format)
	assert.Equal(t, config.OverlapAllow, result.Config.Overlaps)
	assert.Len(t, result.LoadedFrom, 2)
}

func TestLoad_CLIOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".binsplice.yml", "overlaps: reject\n")

	opts := isolated(dir)
	opts.CLIConfig = &config.Config{Overlaps: config.OverlapAllow, DryRun: true, NoBackups: true}

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, config.OverlapAllow, result.Config.Overlaps)
	assert.True(t, result.Config.DryRun)
	assert.False(t, result.Config.BackupsEnabled())
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".binsplice.yml", "format: text\n")

	t.Setenv("BINSPLICE_FORMAT", "json")
	t.Setenv("BINSPLICE_BACKUPS_ENABLED", "false")

	opts := isolated(dir)
	opts.IgnoreEnv = false

	result, err := Load(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, result.Config.Format)
	assert.False(t, result.Config.BackupsEnabled())
}

func TestLoad_EnvInvalidBool(t *testing.T) {
	t.Setenv("BINSPLICE_DRY_RUN", "maybe")

	opts := isolated(t.TempDir())
	opts.IgnoreEnv = false

	_, err := Load(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "BINSPLICE_DRY_RUN")
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, ".binsplice.yml", "overlaps: merge\n")

	_, err := Load(context.Background(), isolated(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "overlaps", verr.Field)
	assert.Equal(t, path, verr.FilePath)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".binsplice.yml", "overlaps: [\n")

	_, err := Load(context.Background(), isolated(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Warnings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".binsplice.yml", "backups:\n  enabled: true\n  mode: none\n")

	result, err := Load(context.Background(), isolated(dir))
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "no backups will be taken")
}

func TestLoad_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, isolated(t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	off := false
	merged := MergeAll(
		config.NewConfig(),
		&config.Config{Format: config.FormatJSON},
		&config.Config{Backups: config.BackupsConfig{Enabled: &off}},
		nil,
	)

	assert.Equal(t, config.FormatJSON, merged.Format)
	assert.Equal(t, config.OverlapReject, merged.Overlaps)
	assert.False(t, merged.BackupsEnabled())
	assert.Nil(t, MergeAll())
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	path, err := WriteDefault(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ProjectConfigName), path)

	loaded, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.OverlapReject, loaded.Overlaps)

	_, err = WriteDefault(ctx, dir, false)
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = WriteDefault(ctx, dir, true)
	assert.NoError(t, err)
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := ListEnvVars()
	require.NotEmpty(t, vars)
	for i := 1; i < len(vars); i++ {
		assert.Less(t, vars[i-1][0], vars[i][0])
	}
	assert.Equal(t, "BINSPLICE_BACKUPS_ENABLED", vars[0][0])
}
