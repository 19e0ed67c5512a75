package logbook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tfkr-ae/logbook/domain"
)

// WithOptions applies a series of configuration functions to the manager.
// It is only safe to call before the manager is used.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (m *Manager) WithOptions(options ...func(*Manager) error) error {
	for _, option := range options {
		if err := option(m); err != nil {
			return fmt.Errorf("applying option on logbook : %w", err)
		}
	}
	return nil
}

// WithDrivers appends drivers to the manager. The first driver ever added is the main driver.
func WithDrivers(drivers ...domain.Driver) func(*Manager) error {
	return func(m *Manager) error {
		for _, driver := range drivers {
			if driver == nil {
				return errors.New("nil driver")
			}
		}
		m.drivers = append(m.drivers, drivers...)
		return nil
	}
}

// WithLevel sets the manager level. It is applied to every driver once all options have run,
// overriding the levels the drivers were built with.
func WithLevel(level domain.Level) func(*Manager) error {
	return func(m *Manager) error {
		if !level.Valid() {
			return fmt.Errorf("invalid level %d", level)
		}
		m.level.Store(int64(level))
		m.cascadeLevel = true
		return nil
	}
}

// WithLogger sets the logger used for the manager's own diagnostics.
// A nil logger is replaced with one that discards everything.
func WithLogger(logger *slog.Logger) func(*Manager) error {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		m.Logger = logger
		return nil
	}
}

// WithSequencer sets the source of order keys for new entries.
func WithSequencer(seq domain.Sequencer) func(*Manager) error {
	return func(m *Manager) error {
		if seq == nil {
			return errors.New("nil sequencer")
		}
		m.seq = seq
		return nil
	}
}

// WithBackgroundTasks sets the facility notified around background stores.
func WithBackgroundTasks(tasks BackgroundTasks) func(*Manager) error {
	return func(m *Manager) error {
		if tasks == nil {
			return errors.New("nil background tasks")
		}
		m.tasks = tasks
		return nil
	}
}

// WithQueueSize sets how many jobs may wait for the dispatch goroutine. Once that many are
// waiting, Log blocks until the drivers catch up, unless WithDropWhenFull is set.
func WithQueueSize(size int) func(*Manager) error {
	return func(m *Manager) error {
		if size <= 0 {
			return fmt.Errorf("invalid queue size %d", size)
		}
		m.queueSize = size
		return nil
	}
}

// WithDropWhenFull makes Log drop entries, with a warning, instead of blocking on a full queue.
func WithDropWhenFull() func(*Manager) error {
	return func(m *Manager) error {
		m.dropWhenFull = true
		return nil
	}
}
