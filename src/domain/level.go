package domain

import (
	"strings"

	"github.com/juju/loggo/v2"
	"github.com/pkg/errors"
)

type Level string

const (
	LevelTrace    Level = "trace"
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

var ErrUnknownLevel = errors.New("unknown log level")

// Names accepted by ParseLevel. Aliases map onto the canonical levels.
var levelNames = map[string]Level{
	"trace":     LevelTrace,
	"debug":     LevelDebug,
	"info":      LevelInfo,
	"warning":   LevelWarning,
	"warn":      LevelWarning,
	"error":     LevelError,
	"exception": LevelError,
	"critical":  LevelCritical,
	"fatal":     LevelCritical,
}

func ParseLevel(name string) (Level, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return "", errors.WithMessagef(ErrUnknownLevel, "%q", name)
}

func (self Level) Loggo() loggo.Level {
	switch self {
	case LevelTrace:
		return loggo.TRACE
	case LevelDebug:
		return loggo.DEBUG
	case LevelInfo:
		return loggo.INFO
	case LevelWarning:
		return loggo.WARNING
	case LevelError:
		return loggo.ERROR
	case LevelCritical:
		return loggo.CRITICAL
	default:
		return loggo.UNSPECIFIED
	}
}

// LevelLabel is the value of the "level" label on pushed log lines.
func LevelLabel(level loggo.Level) string {
	return strings.ToLower(level.String())
}
