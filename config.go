package logbook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/tfkr-ae/logbook/console"
	"github.com/tfkr-ae/logbook/domain"
	"github.com/tfkr-ae/logbook/storage"
)

// StorageConfig configures the storage driver.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Level     string `mapstructure:"level"`
	FileName  string `mapstructure:"file_name"`
	Directory string `mapstructure:"directory"` // Defaults to the config dir
	InMemory  bool   `mapstructure:"in_memory"`
}

// ConsoleConfig configures the console driver.
type ConsoleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	Color   string `mapstructure:"color"` // auto, always or never
}

// Config is the logbook configuration stored as config.yaml in the config dir.
// Every key can be overridden from the environment, LOGBOOK_STORAGE_LEVEL sets storage.level.
type Config struct {
	viper     *viper.Viper
	ConfigDir string        `mapstructure:"-"`
	Level     string        `mapstructure:"level"` // When set, overrides the driver levels
	QueueSize int           `mapstructure:"queue_size"`
	Storage   StorageConfig `mapstructure:"storage"`
	Console   ConsoleConfig `mapstructure:"console"`
}

// LoadConfig reads config.yaml from configDir. The directory is created if it doesn't exist and
// a config file holding the defaults is written on first run.
//
// Parameters:
//   - configDir: Path to the configuration directory
//
// Returns:
//   - *Config: Loaded configuration
//   - error: Error creating the directory or reading, writing or decoding the config file
func LoadConfig(configDir string) (*Config, error) {
	_, err := os.ReadDir(configDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking if directory exists %s: %w", configDir, err)
		}
		if err := os.MkdirAll(configDir, 0700); err != nil {
			return nil, fmt.Errorf("creating config dir %s: %w", configDir, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetDefault("level", "")
	v.SetDefault("queue_size", DefaultQueueSize)
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.level", domain.LevelDebug.String())
	v.SetDefault("storage.file_name", storage.DefaultFileName)
	v.SetDefault("storage.directory", "")
	v.SetDefault("storage.in_memory", false)
	v.SetDefault("console.enabled", true)
	v.SetDefault("console.level", domain.LevelInfo.String())
	v.SetDefault("console.color", console.ColorAuto.String())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing config file : %w", err)
		}
	}

	v.SetEnvPrefix("LOGBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{viper: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	cfg.ConfigDir = configDir
	return cfg, nil
}

// SetLevel saves the manager level to the config file.
func (cfg *Config) SetLevel(level domain.Level) error {
	if !level.Valid() {
		return fmt.Errorf("invalid level %d", level)
	}
	cfg.viper.Set("level", level.String())
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	cfg.Level = level.String()
	return nil
}

// Drivers builds the configured drivers, storage first so that it is the main driver.
// A storage driver that cannot be created is skipped with a warning.
func (cfg *Config) Drivers(logger *slog.Logger) ([]domain.Driver, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var drivers []domain.Driver
	if cfg.Storage.Enabled {
		level, err := domain.ParseLevel(cfg.Storage.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing storage level : %w", err)
		}

		options := []storage.Option{
			storage.WithLevel(level),
			storage.WithLogger(logger),
		}
		if cfg.Storage.InMemory {
			options = append(options, storage.InMemory())
		} else {
			dir := cfg.Storage.Directory
			if dir == "" {
				dir = cfg.ConfigDir
			}
			options = append(options, storage.WithDirectory(dir), storage.WithFileName(cfg.Storage.FileName))
		}

		driver, err := storage.New(options...)
		if err != nil {
			logger.Warn("skipping storage driver", "error", err)
		} else {
			drivers = append(drivers, driver)
		}
	}

	if cfg.Console.Enabled {
		level, err := domain.ParseLevel(cfg.Console.Level)
		if err != nil {
			closeDrivers(drivers)
			return nil, fmt.Errorf("parsing console level : %w", err)
		}
		color, err := console.ParseColorMode(cfg.Console.Color)
		if err != nil {
			closeDrivers(drivers)
			return nil, fmt.Errorf("parsing console color : %w", err)
		}

		driver, err := console.New(
			console.WithLevel(level),
			console.WithColor(color),
			console.WithLogger(logger),
		)
		if err != nil {
			closeDrivers(drivers)
			return nil, fmt.Errorf("creating console driver : %w", err)
		}
		drivers = append(drivers, driver)
	}
	return drivers, nil
}

// NewFromConfig creates a manager with the configured drivers, all reporting to logger.
// options are applied after the configured ones.
func NewFromConfig(cfg *Config, logger *slog.Logger, options ...func(*Manager) error) (*Manager, error) {
	drivers, err := cfg.Drivers(logger)
	if err != nil {
		return nil, err
	}

	configured := []func(*Manager) error{
		WithLogger(logger),
		WithDrivers(drivers...),
		WithQueueSize(cfg.QueueSize),
	}
	if cfg.Level != "" {
		level, err := domain.ParseLevel(cfg.Level)
		if err != nil {
			closeDrivers(drivers)
			return nil, fmt.Errorf("parsing level : %w", err)
		}
		configured = append(configured, WithLevel(level))
	}

	manager, err := New(append(configured, options...)...)
	if err != nil {
		closeDrivers(drivers)
		return nil, err
	}
	return manager, nil
}

func closeDrivers(drivers []domain.Driver) {
	for _, driver := range drivers {
		driver.Close()
	}
}
