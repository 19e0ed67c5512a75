package logbook

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tfkr-ae/logbook/domain"
)

func TestWithLogger(t *testing.T) {
	t.Run("sets custom logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		m, err := New(
			WithLogger(logger),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer m.Close()

		if m.Logger != logger {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", logger, m.Logger)
		}

		m.Logger.Info("test log message")
		if !strings.Contains(buf.String(), "test log message") {
			t.Fatalf("\nwanted:\nlog output containing 'test log message'\ngot:\n%q", buf.String())
		}
	})

	t.Run("handles nil logger safely", func(t *testing.T) {
		m, err := New(
			WithLogger(nil),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer m.Close()

		if m.Logger == nil {
			t.Fatalf("\nwanted:\nnon-nil logger\ngot:\nnil")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("\nwanted:\nno panic\ngot:\n%v", r)
			}
		}()

		m.Logger.Info("safe check")
	})
}

func TestWithLevel(t *testing.T) {
	t.Run("should cascade to every driver", func(t *testing.T) {
		first, second := newFakeDriver(domain.LevelDebug), newFakeDriver(domain.LevelError)

		m, err := New(WithLevel(domain.LevelWarn), WithDrivers(first, second))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer m.Close()

		for i, driver := range []*fakeDriver{first, second} {
			if driver.Level() != domain.LevelWarn {
				t.Fatalf("driver %d\nwanted:\n%v\ngot:\n%v", i, domain.LevelWarn, driver.Level())
			}
		}
	})

	t.Run("should leave driver levels alone when not set", func(t *testing.T) {
		driver := newFakeDriver(domain.LevelError)

		m, err := New(WithDrivers(driver))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer m.Close()

		if driver.Level() != domain.LevelError {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.LevelError, driver.Level())
		}
	})

	t.Run("should reject an invalid level", func(t *testing.T) {
		if _, err := New(WithLevel(domain.Level(7))); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		option func(*Manager) error
	}{
		{name: "nil driver", option: WithDrivers(nil)},
		{name: "nil sequencer", option: WithSequencer(nil)},
		{name: "nil background tasks", option: WithBackgroundTasks(nil)},
		{name: "zero queue size", option: WithQueueSize(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.option); err == nil {
				t.Fatalf("\nwanted:\nerror\ngot:\nnil")
			}
		})
	}
}
