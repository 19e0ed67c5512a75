package console

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tfkr-ae/logbook/domain"
)

// ColorMode selects when level names are colored.
type ColorMode int

const (
	// ColorAuto colors output only when the writer is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return fmt.Sprintf("color(%d)", int(m))
	}
}

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q", s)
}

// Option configures a console driver.
type Option func(*settings) error

type settings struct {
	level  domain.Level
	writer io.Writer
	color  ColorMode
	format FormatFunc
	logger *slog.Logger
}

// WithLevel sets the minimum level the driver prints.
func WithLevel(level domain.Level) Option {
	return func(s *settings) error {
		if !level.Valid() {
			return fmt.Errorf("invalid level %d", level)
		}
		s.level = level
		return nil
	}
}

// WithWriter sets the destination of the driver's lines. The default is os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) error {
		if w == nil {
			return errors.New("nil writer")
		}
		s.writer = w
		return nil
	}
}

// WithColor sets the color mode.
func WithColor(mode ColorMode) Option {
	return func(s *settings) error {
		s.color = mode
		return nil
	}
}

// WithFormat replaces the line format. The returned line must not end with a newline.
func WithFormat(format FormatFunc) Option {
	return func(s *settings) error {
		if format == nil {
			return errors.New("nil format func")
		}
		s.format = format
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

func defaultSettings() *settings {
	return &settings{
		level:  domain.LevelDebug,
		writer: os.Stderr,
		color:  ColorAuto,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
