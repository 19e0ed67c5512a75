package logbook

import (
	"fmt"

	"github.com/tfkr-ae/logbook/core"
	"github.com/tfkr-ae/logbook/domain"
)

// Log records message at level, attributed to the caller.
func (m *Manager) Log(level domain.Level, message string) {
	m.logFrom(1, level, message)
}

// Logf formats and records a message at level, attributed to the caller.
func (m *Manager) Logf(level domain.Level, format string, args ...any) {
	m.logFrom(1, level, fmt.Sprintf(format, args...))
}

// Debug records message at debug level, attributed to the caller.
func (m *Manager) Debug(message string) { m.logFrom(1, domain.LevelDebug, message) }

// Info records message at info level, attributed to the caller.
func (m *Manager) Info(message string) { m.logFrom(1, domain.LevelInfo, message) }

// Warn records message at warn level, attributed to the caller.
func (m *Manager) Warn(message string) { m.logFrom(1, domain.LevelWarn, message) }

// Error records message at error level, attributed to the caller.
func (m *Manager) Error(message string) { m.logFrom(1, domain.LevelError, message) }

// logFrom attributes the entry to the frame skip levels above its caller.
func (m *Manager) logFrom(skip int, level domain.Level, message string) {
	site := core.Caller(skip + 1)
	m.LogAt(site.File, site.Line, site.Function, level, message)
}
