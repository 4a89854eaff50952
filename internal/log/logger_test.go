package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmetrics/internal/config"
)

func TestNewLogger_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewLogger(config.LoggingConfig{
		Level:            "debug",
		Encoding:         "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)

	logger.Debug("写入报告")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "finmetrics", entry["service"])
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "写入报告", entry["msg"])
	assert.Contains(t, entry, "ts")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
