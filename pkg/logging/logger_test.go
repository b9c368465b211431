package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := initWithWriter("debug", "json", &buf)

	logger.With("component", "registry").Info("binding registered", "base", "RCN", "quote", "BTC", 42, "ignored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "binding registered", entry["message"])
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "RCN", entry["base"])
	assert.Equal(t, "BTC", entry["quote"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := initWithWriter("warn", "json", &buf)
	t.Cleanup(func() { initWithWriter("info", "json", &bytes.Buffer{}) })

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.Info("nothing", "k", "v")
		logger.With("a", 1).Error("still nothing")
	})
}

func TestInitWithRotation_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.log")
	logger, err := InitWithRotation("info", "json", "stderr", RotationConfig{Path: path, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { initWithWriter("info", "json", &bytes.Buffer{}) })

	logger.Info("rotated entry")
	assert.FileExists(t, path)
}

func TestGlobalLogger(t *testing.T) {
	t.Cleanup(func() { SetGlobal(nil) })

	SetGlobal(nil)
	assert.NotPanics(t, func() { Info("dropped") })

	var buf bytes.Buffer
	SetGlobal(initWithWriter("debug", "json", &buf))
	t.Cleanup(func() { initWithWriter("info", "json", &bytes.Buffer{}) })

	Warn("metrics server failed", "addr", ":9090")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "metrics server failed", entry["message"])
	assert.Equal(t, ":9090", entry["addr"])
}
