package domain

import (
	"testing"

	"github.com/juju/loggo/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for name, expected := range map[string]Level{
		"trace":     LevelTrace,
		"debug":     LevelDebug,
		"INFO":      LevelInfo,
		"warn":      LevelWarning,
		"Warning":   LevelWarning,
		"error":     LevelError,
		"exception": LevelError,
		"critical":  LevelCritical,
		"fatal":     LevelCritical,
	} {
		level, err := ParseLevel(name)
		assert.NoError(t, err, name)
		assert.Equal(t, expected, level, name)
	}

	_, err := ParseLevel("not-a-level")
	assert.True(t, errors.Is(err, ErrUnknownLevel))
}

func TestLevelLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "trace", LevelLabel(LevelTrace.Loggo()))
	assert.Equal(t, "error", LevelLabel(LevelError.Loggo()))
	assert.Equal(t, "warning", LevelLabel(LevelWarning.Loggo()))
	assert.Equal(t, loggo.UNSPECIFIED, Level("bogus").Loggo())
}
