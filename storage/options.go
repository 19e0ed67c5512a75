package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tfkr-ae/logbook/domain"
)

// DefaultFileName is the database file used when none is configured.
const DefaultFileName = "logs.sqlite3"

// Option configures a storage driver.
type Option func(*settings) error

// settings collects the values applied by options before the driver is built.
type settings struct {
	level     domain.Level
	fileName  string
	directory string
	inMemory  bool
	logger    *slog.Logger
	repo      domain.EntryRepository
}

// WithLevel sets the minimum level the driver persists.
func WithLevel(level domain.Level) Option {
	return func(s *settings) error {
		if !level.Valid() {
			return fmt.Errorf("invalid level %d", level)
		}
		s.level = level
		return nil
	}
}

// WithFileName sets the database file name inside the driver's directory.
func WithFileName(name string) Option {
	return func(s *settings) error {
		if name == "" || filepath.Base(name) != name {
			return fmt.Errorf("invalid database file name %q", name)
		}
		s.fileName = name
		return nil
	}
}

// WithDirectory sets the application-private directory holding the database file.
// The directory is created with 0700 permissions if it does not exist.
func WithDirectory(dir string) Option {
	return func(s *settings) error {
		if dir == "" {
			return errors.New("empty database directory")
		}
		s.directory = dir
		return nil
	}
}

// InMemory makes the driver use a private in-memory database. In-memory drivers never share state.
func InMemory() Option {
	return func(s *settings) error {
		s.inMemory = true
		return nil
	}
}

// WithLogger sets the logger used for the driver's own diagnostics. A nil logger discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		s.logger = logger
		return nil
	}
}

// WithRepository makes the driver use repo instead of opening a database.
func WithRepository(repo domain.EntryRepository) Option {
	return func(s *settings) error {
		if repo == nil {
			return errors.New("nil repository")
		}
		s.repo = repo
		return nil
	}
}

// DefaultDirectory returns the per-user application directory used when none is configured.
func DefaultDirectory() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir : %w", err)
	}
	return filepath.Join(configDir, "logbook"), nil
}

func ensureDirectory(dir string) error {
	_, err := os.ReadDir(dir)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("checking if directory exists %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating database dir %s: %w", dir, err)
	}
	return nil
}
