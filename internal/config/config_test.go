package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/weave/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultBenchItems, cfg.Bench.Items)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Empty(t, cfg.Path())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	configJSON := `{
  "addr": ":9000",
  "log": {"level": "DEBUG", "format": "json"},
  "metrics": {"namespace": "ui"},
  "bench": {"items": 100}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(configJSON), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "ui", cfg.Metrics.Namespace)
	assert.True(t, cfg.Metrics.Enabled, "unset fields keep defaults")
	assert.Equal(t, 100, cfg.Bench.Items)
	assert.Equal(t, DefaultBenchRounds, cfg.Bench.Rounds)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Path())

	t.Setenv("WEAVE_ADDR", "127.0.0.1:7171")
	t.Setenv("WEAVE_METRICS", "false")
	t.Setenv("WEAVE_BENCH_ROUNDS", "5")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7171", cfg.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 5, cfg.Bench.Rounds)
	assert.Equal(t, "json", cfg.Log.Format, "file values survive when the variable is unset")
}

func TestInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.New("W122")))
}

func TestInvalidEnv(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		code string
	}{
		{"bad int", "WEAVE_BENCH_ITEMS", "many", "W120"},
		{"bad bool", "WEAVE_METRICS", "maybe", "W120"},
		{"bad level", "WEAVE_LOG_LEVEL", "loud", "W121"},
		{"bad format", "WEAVE_LOG_FORMAT", "xml", "W120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(t.TempDir())
			var werr *errors.Error
			require.True(t, stderrors.As(err, &werr))
			assert.Equal(t, tt.code, werr.Code)
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := New()
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg.Log.Level = in
		got, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Addr = ":1234"
	require.NoError(t, cfg.SaveTo(path))
	assert.Equal(t, path, cfg.Path())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", loaded.Addr)
	assert.Equal(t, cfg.Log, loaded.Log)
}
