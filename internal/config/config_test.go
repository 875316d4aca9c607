package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/rickrack/internal/seed"
)

// isolate points the config home at an empty directory and runs from it,
// so no user config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[history]
max_steps = 12

[colour]
overflow = "repeat"
rule = "Triad"

[grid]
col = 200
ctp = "hs"
sum_factor = 2.0

[seed]
mode = "manual"
value = 42
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.History.MaxSteps)
	assert.Equal(t, "repeat", cfg.Colour.Overflow)
	assert.Equal(t, "triad", cfg.Colour.Rule)
	assert.Equal(t, 51, cfg.Grid.Col)
	assert.Equal(t, "hs", cfg.Grid.CTP)
	assert.InDelta(t, 2.0, cfg.Grid.SumFactor, 1e-9)
	assert.InDelta(t, 0.5, cfg.Grid.AssistFactor, 1e-9, "unset keys keep defaults")
	assert.Equal(t, seed.ModeManual, cfg.Seed.Mode)
	require.NotNil(t, cfg.Seed.Value)
	assert.Equal(t, int64(42), *cfg.Seed.Value)
}

func TestLoadDefaultPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rickrack", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("[history]\nmax_steps = 7\n"), 0o600))

	assert.Equal(t, path, DefaultPath())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History.MaxSteps)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history\nmax_steps = "), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history]\nmax_steps = 12\n"), 0o600))

	t.Setenv("RICKRACK_HISTORY_MAX_STEPS", "30")
	t.Setenv("RICKRACK_GRID_COL", "5")
	t.Setenv("RICKRACK_SEED", "77")
	t.Setenv("RICKRACK_EXTRACT_ARTIST", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.History.MaxSteps)
	assert.Equal(t, 5, cfg.Grid.Col)
	assert.True(t, cfg.Extract.Artist)
	assert.Equal(t, seed.ModeManual, cfg.Seed.Mode)
	require.NotNil(t, cfg.Seed.Value)
	assert.Equal(t, int64(77), *cfg.Seed.Value)
}

func TestDotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RICKRACK_RULE=shades\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RICKRACK_RULE") })

	cfg, err := Load(filepath.Join(dir, "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "shades", cfg.Colour.Rule)
}

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.History.MaxSteps = -3
	cfg.Handoff.Addr = "0.0.0.0:23333"
	cfg.Colour.Overflow = "sideways"
	cfg.Colour.Sync = "bogus"
	cfg.Extract.ColorType = 9
	cfg.Extract.Extend = 0
	cfg.Seed.Mode = seed.ModeManual

	got := cfg.Normalize()

	def := Default()
	assert.Equal(t, def.History.MaxSteps, got.History.MaxSteps)
	assert.Equal(t, DefaultAddr, got.Handoff.Addr)
	assert.Equal(t, "cutoff", got.Colour.Overflow)
	assert.Equal(t, "unlimited", got.Colour.Sync)
	assert.Equal(t, -1, got.Extract.ColorType)
	assert.InDelta(t, 1.0, got.Extract.Extend, 1e-9)
	assert.Equal(t, seed.ModeRandom, got.Seed.Mode, "manual without a value falls back to random")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Grid.Col = 13
	cfg.Colour.Rule = "pentad"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
