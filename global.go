package logbook

import (
	"fmt"
	"sync"

	"github.com/tfkr-ae/logbook/domain"
)

var (
	defaultMu      sync.RWMutex
	defaultManager *Manager
)

// Setup replaces the process-wide manager with one dispatching to drivers.
// A previously installed manager is closed.
func Setup(drivers ...domain.Driver) error {
	m, err := New(WithDrivers(drivers...))
	if err != nil {
		return fmt.Errorf("setting up logbook: %w", err)
	}
	return SetDefault(m)
}

// SetDefault installs m as the process-wide manager and closes the previous one.
// Drivers shared by both managers stay open for m.
func SetDefault(m *Manager) error {
	defaultMu.Lock()
	previous := defaultManager
	defaultManager = m
	defaultMu.Unlock()

	if previous != nil && previous != m {
		var keep []domain.Driver
		if m != nil {
			keep = m.drivers
		}
		return previous.shutdown(keep)
	}
	return nil
}

// Default returns the process-wide manager. It panics if Setup or SetDefault was never called.
func Default() *Manager {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultManager == nil {
		panic("logbook: Setup must be called before logging")
	}
	return defaultManager
}

// Log records message at level on the process-wide manager.
func Log(level domain.Level, message string) {
	Default().logFrom(1, level, message)
}

// Logf formats and records a message at level on the process-wide manager.
func Logf(level domain.Level, format string, args ...any) {
	Default().logFrom(1, level, fmt.Sprintf(format, args...))
}

// LogAt records an entry for an explicit call site on the process-wide manager.
func LogAt(file string, line uint, function string, level domain.Level, message string) {
	Default().LogAt(file, line, function, level, message)
}

// Debug records message at debug level on the process-wide manager.
func Debug(message string) { Default().logFrom(1, domain.LevelDebug, message) }

// Info records message at info level on the process-wide manager.
func Info(message string) { Default().logFrom(1, domain.LevelInfo, message) }

// Warn records message at warn level on the process-wide manager.
func Warn(message string) { Default().logFrom(1, domain.LevelWarn, message) }

// Error records message at error level on the process-wide manager.
func Error(message string) { Default().logFrom(1, domain.LevelError, message) }
