package domain

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Levels are compared purely by their rank,
// debug < info < warn < error.
type Level int64

const (
	LevelDebug Level = 0
	LevelInfo  Level = 10
	LevelWarn  Level = 20
	LevelError Level = 30
)

// Levels lists every valid level in ascending severity.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

// String returns the stable display name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int64(l))
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// Enabled reports whether an entry at level l passes a threshold.
func (l Level) Enabled(threshold Level) bool {
	return l >= threshold
}

// ParseLevel parses a level name, case-insensitive. "warning" is accepted as an alias of warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelDebug, fmt.Errorf("unknown log level %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
