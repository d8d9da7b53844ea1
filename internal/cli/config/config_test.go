package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "portion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("style", "", "")
	flags.String("state", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.Int("concurrency", 0, "")
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultStyle, cfg.Style)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultConcurrency, cfg.Parse.Concurrency)
	assert.Equal(t, DefaultServeAddr, cfg.GetServeConfig().Addr)
	assert.Equal(t, DefaultShutdownTimeout, cfg.GetServeConfig().ShutdownTimeout)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
output: json
style: described
state_path: data/state.db
parse:
  concurrency: 2
serve:
  addr: ":9000"
  shutdown_timeout: 10s
units:
  - name: stick
    plural: sticks
    multiple: 2304
    dimension: volume
  - name: jigger
    aliases: [jiggers]
    multiple: "1/2"
    dimension: volume
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, unit.Described, cfg.DisplayStyle())
	assert.Equal(t, filepath.Join(dir, "data", "state.db"), cfg.StatePath)
	assert.Equal(t, 2, cfg.Parse.Concurrency)
	assert.Equal(t, ":9000", cfg.GetServeConfig().Addr)
	assert.Equal(t, 10*time.Second, cfg.GetServeConfig().ShutdownTimeout)
	assert.Equal(t, filepath.Join(dir, "portion.yaml"), GetConfigFileUsed())

	require.Len(t, cfg.Units, 2)
	assert.True(t, ratio.Int(2304).Equal(cfg.Units[0].Multiple))
	assert.Equal(t, unit.Volume, cfg.Units[0].Dimension)
	assert.True(t, ratio.New(1, 2).Equal(cfg.Units[1].Multiple))

	r, err := cfg.Resolver()
	require.NoError(t, err)
	stick, ok := r.Lookup("sticks")
	require.True(t, ok)
	assert.Equal(t, "stick", stick.Name())
	_, ok = r.Lookup("jiggers")
	assert.True(t, ok)
}

func TestLoadConfigUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "style: long\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, unit.Described, cfg.DisplayStyle())
	assert.Equal(t, filepath.Join(root, "portion.yaml"), GetConfigFileUsed())
}

func TestLoadConfigPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "output: json\nstyle: described\nparse:\n  concurrency: 2\n")

	t.Setenv("PORTION_OUTPUT", "yaml")
	t.Setenv("PORTION_PARSE__CONCURRENCY", "8")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--style", "short", "--state", "other.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.OutputFormat, "env overrides file")
	assert.Equal(t, 8, cfg.Parse.Concurrency, "nested env key")
	assert.Equal(t, "short", cfg.Style, "flag overrides file")
	assert.Equal(t, "other.db", cfg.StatePath, "flag paths stay relative to CWD")
}

func TestLoadConfigUnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "output: markdown\n")

	cfg, err := LoadConfig("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	path := writeConfig(t, t.TempDir(), "state_path: postgres://localhost/portion\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/portion", cfg.StatePath)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"bad output", "output: xml\n", "output must be one of"},
		{"bad style", "style: fancy\n", "style must be one of"},
		{"bad concurrency", "parse:\n  concurrency: 0\n", "concurrency must be at least 1"},
		{"unit without name", "units:\n  - multiple: 2\n    dimension: volume\n", "name is required"},
		{"unit without dimension", "units:\n  - name: stick\n    multiple: 2\n", "dimension is required"},
		{"unit zero multiple", "units:\n  - name: stick\n    multiple: 0\n    dimension: time\n", "multiple must be positive"},
		{"unknown dimension", "units:\n  - name: stick\n    multiple: 1\n    dimension: mass\n", "decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.content)

			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "state_path", flagKey("state"))
	assert.Equal(t, "parse.concurrency", flagKey("concurrency"))
	assert.Equal(t, "serve.watch_dir", flagKey("watch-dir"))
	assert.Equal(t, "serve.addr", flagKey("addr"))
	assert.Equal(t, "output", flagKey("output"))
}

func TestGetLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))

	assert.NotNil(t, GetLogger(context.Background()))
	assert.Equal(t, loggerKey{}, LoggerKey())
}
