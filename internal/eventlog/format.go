package eventlog

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/romso/r4d4r/internal/domain"
)

// Formatter renders log entries as "[HH:MM:SS] [TAG] text".
type Formatter struct {
	stamp  lipgloss.Style
	text   lipgloss.Style
	tags   map[domain.Level]string
	styles map[domain.Level]lipgloss.Style
	plain  lipgloss.Style
}

// NewFormatter builds a formatter bound to a renderer for w. When color is
// false every style renders as plain text.
func NewFormatter(w io.Writer, color bool) Formatter {
	return NewFormatterWithRenderer(NewRenderer(w, color))
}

// NewRenderer returns a lipgloss renderer for w, forced to the Ascii profile
// when color is disabled.
func NewRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	} else if r.ColorProfile() == termenv.Ascii {
		r.SetColorProfile(termenv.ANSI)
	}
	return r
}

// NewFormatterWithRenderer builds a formatter sharing r with other views.
func NewFormatterWithRenderer(r *lipgloss.Renderer) Formatter {
	bold := r.NewStyle().Bold(true)
	return Formatter{
		stamp: bold.Foreground(lipgloss.Color("3")),
		text:  r.NewStyle(),
		plain: bold,
		tags: map[domain.Level]string{
			domain.LevelStart: "+",
			domain.LevelDone:  "DONE",
			domain.LevelWarn:  "WARN",
			domain.LevelError: "ERROR",
		},
		styles: map[domain.Level]lipgloss.Style{
			domain.LevelStart:  bold.Foreground(lipgloss.Color("4")),
			domain.LevelDone:   bold.Foreground(lipgloss.Color("2")),
			domain.LevelWarn:   bold.Foreground(lipgloss.Color("1")),
			domain.LevelError:  bold.Foreground(lipgloss.Color("1")),
			domain.LevelBanner: bold.Foreground(lipgloss.Color("4")),
		},
	}
}

// Format renders one entry.
func (f Formatter) Format(e domain.LogEntry) string {
	line := "[" + f.stamp.Render(e.Time.Format("15:04:05")) + "] "
	if tag, ok := f.tags[e.Level]; ok {
		line += f.plain.Render("[") + f.styles[e.Level].Render(tag) + f.plain.Render("]") + " "
	}
	switch e.Level {
	case domain.LevelBanner:
		return line + f.styles[e.Level].Render(e.Text)
	case domain.LevelInfo:
		return line + f.plain.Render(e.Text)
	default:
		return line + f.text.Render(e.Text)
	}
}

// FormatAll renders entries in order.
func (f Formatter) FormatAll(entries []domain.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = f.Format(e)
	}
	return out
}
