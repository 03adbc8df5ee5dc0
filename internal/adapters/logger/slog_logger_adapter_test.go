package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"propertify-view-service/internal/core/port"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapter_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelDebug, IsJSON: true})

	logger.WithFields(port.Fields{"session_id": "s-1"}).Error("fetch failed", errors.New("timeout"), port.Fields{"page": 2})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetch failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, float64(2), entry["page"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestSlogAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelWarn})

	logger.Debug("hidden", nil)
	logger.Info("hidden too", nil)
	logger.Warn("visible", port.Fields{"k": "v"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "visible"))
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger, err := NewMultiLoggerAdapter(
		NewSlogAdapter(SlogConfig{Writer: &a}),
		nil,
		NewSlogAdapter(SlogConfig{Writer: &b}),
	)
	require.NoError(t, err)

	logger.WithFields(port.Fields{"component": "test"}).Info("hello", nil)
	assert.Contains(t, a.String(), "component=test")
	assert.Contains(t, b.String(), "component=test")

	_, err = NewMultiLoggerAdapter()
	assert.Error(t, err)
}
