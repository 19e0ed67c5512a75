package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/tfkr-ae/logbook/domain"
)

// TimeLayout is the timestamp layout of the default line format.
const TimeLayout = "2006-01-02 15:04:05.000"

// FormatFunc renders an entry as a single line.
type FormatFunc func(entry *domain.Entry) string

// LevelColors are the colors used for each level name.
var LevelColors = map[domain.Level]lipgloss.TerminalColor{
	domain.LevelDebug: lipgloss.Color("#29C6E8"),
	domain.LevelInfo:  lipgloss.Color("#2C75FE"),
	domain.LevelWarn:  lipgloss.Color("#E7C229"),
	domain.LevelError: lipgloss.Color("#FF2A25"),
}

// Formatter renders entries as "time [level] file:function:line message".
type Formatter struct {
	lvlStyles map[domain.Level]lipgloss.Style
}

// NewFormatter returns a formatter whose level styles are rendered for w under the given color mode.
func NewFormatter(w io.Writer, mode ColorMode) *Formatter {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	default:
		if !isTerminal(w) {
			r.SetColorProfile(termenv.Ascii)
		}
	}

	lvlStyles := map[domain.Level]lipgloss.Style{}
	for lvl, color := range LevelColors {
		lvlStyles[lvl] = r.NewStyle().Bold(true).Foreground(color)
	}
	return &Formatter{lvlStyles: lvlStyles}
}

func (f *Formatter) lvlStyle(lvl domain.Level) lipgloss.Style {
	if style, ok := f.lvlStyles[lvl]; ok {
		return style
	}
	return lipgloss.Style{}
}

// Format renders one entry.
func (f *Formatter) Format(entry *domain.Entry) string {
	return fmt.Sprintf("%s [%s] %s:%s:%d %s",
		entry.CreatedAt().Local().Format(TimeLayout),
		f.lvlStyle(entry.Level()).Render(entry.Level().String()),
		entry.File(),
		entry.Function(),
		entry.Line(),
		entry.Message())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
