package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("warn", "json", &buf)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Str("zipcode", "33620").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "33620", entry["zipcode"])
	assert.Contains(t, entry, "time")
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("debug", "console", &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)
}
