package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/weave/internal/config"
)

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)
	defer l.Close()

	l.Debug("hidden")
	l.Info("flush", "jobs", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=flush")
	assert.Contains(t, out, "jobs=3")

	l.Level.Set(slog.LevelDebug)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestJSONFanout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "weave.log")
	l, err := New(config.LogConfig{Level: "debug", Format: "json", File: path}, &buf)
	require.NoError(t, err)

	l.Debug("mounted", "component", "List")
	require.NoError(t, l.Close())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "mounted", rec["msg"])
	assert.Equal(t, "List", rec["component"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), `"component":"List"`)
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("dropped") })
}
