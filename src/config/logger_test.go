package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLoggerConfig(t *testing.T) {
	t.Setenv("CONSOLE_LOGGING_ENABLED", "true")
	t.Setenv("FILE_LOGGING_ENABLED", "true")
	t.Setenv("LOGS_DIRECTORY", "")
	t.Setenv("LOGS_MAX_SIZE", "20")

	conf, err := buildLoggerConfig(true)

	require.NoError(t, err)
	assert.True(t, conf.ConsoleLoggingEnabled)
	assert.True(t, conf.FileLoggingEnabled)
	assert.True(t, conf.DebugModeEnabled)
	assert.Equal(t, "/var/log/loki-tester", conf.Directory)
	assert.Equal(t, "loki-tester.log", conf.Filename)
	assert.Equal(t, 20, conf.MaxSize)
	assert.Equal(t, 3, conf.MaxBackups)
}

func TestBuildLoggerConfigInvalid(t *testing.T) {
	t.Setenv("CONSOLE_LOGGING_ENABLED", "maybe")

	_, err := buildLoggerConfig(false)
	assert.Error(t, err)
}

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	out := bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{}, &out)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}
