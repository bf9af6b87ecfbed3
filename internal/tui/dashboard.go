// Package tui renders the live dashboard: logo, radar and the event log tail.
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/romso/r4d4r/internal/domain"
	"github.com/romso/r4d4r/internal/eventlog"
	"github.com/romso/r4d4r/internal/radar"
)

// Label is the byline shown under the logo.
const Label = "R4D4R by @Romso"

// Logo is the banner art.
var Logo = []string{
	"__________    _____________      _______________  ",
	"\\______   \\  /  |  \\______ \\    /  |  \\______   \\ ",
	" |       _/ /   |  ||    |  \\  /   |  ||       _/ ",
	" |    |   \\/    ^   /    `   \\/    ^   /    |   \\ ",
	" |____|_  /\\____   /_______  /\\____   ||____|_  / ",
	"        \\/      |__|       \\/      |__|       \\/  ",
}

// FrameMsg advances the dashboard by one frame. It is exported so that tests
// can drive DashboardModel.Update with a controlled clock.
type FrameMsg struct {
	At time.Time
}

// StopMsg asks the dashboard to exit gracefully.
type StopMsg struct{}

// Phase is the current dashboard screen.
type Phase int

const (
	PhaseBanner Phase = iota
	PhaseRadar
)

// Options configures a DashboardModel.
type Options struct {
	Cadence        time.Duration
	BannerDuration time.Duration
	ConsoleHeight  int
	// Renderer styles every frame. A renderer with the Ascii profile
	// produces plain text.
	Renderer *lipgloss.Renderer
	// Plain draws the radar with ASCII markers.
	Plain bool
}

// DashboardModel is the Bubbletea model of the live display. It reads the
// event log and owns the radar simulation; it never writes to the log.
type DashboardModel struct {
	tail        domain.LogTail
	sim         *radar.Sim
	opts        Options
	format      eventlog.Formatter
	label       lipgloss.Style
	started     time.Time
	now         time.Time
	frames      int
	width       int
	stopped     bool
	interrupted bool
}

// NewDashboardModel creates the dashboard for tail and sim.
func NewDashboardModel(tail domain.LogTail, sim *radar.Sim, opts Options) DashboardModel {
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.Cadence <= 0 {
		opts.Cadence = 80 * time.Millisecond
	}
	if opts.ConsoleHeight <= 0 {
		opts.ConsoleHeight = 8
	}
	return DashboardModel{
		tail:   tail,
		sim:    sim,
		opts:   opts,
		format: eventlog.NewFormatterWithRenderer(opts.Renderer),
		label:  opts.Renderer.NewStyle().Bold(true),
	}
}

// Init schedules the first frame.
func (m DashboardModel) Init() tea.Cmd {
	return m.nextFrame()
}

func (m DashboardModel) nextFrame() tea.Cmd {
	return tea.Tick(m.opts.Cadence, func(t time.Time) tea.Msg {
		return FrameMsg{At: t}
	})
}

// Update handles frames, stop requests and keys.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case FrameMsg:
		if m.stopped {
			return m, nil
		}
		if m.started.IsZero() {
			m.started = msg.At
		}
		m.now = msg.At
		m.frames++
		if m.Phase() == PhaseRadar {
			m.sim.Step()
		}
		return m, m.nextFrame()

	case StopMsg:
		m.stopped = true
		return m, tea.Quit

	case tea.InterruptMsg:
		m.stopped = true
		m.interrupted = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopped = true
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// Phase reports which screen the dashboard is on.
func (m DashboardModel) Phase() Phase {
	if m.started.IsZero() || m.now.Sub(m.started) < m.opts.BannerDuration {
		return PhaseBanner
	}
	return PhaseRadar
}

// Frames returns the number of frames processed.
func (m DashboardModel) Frames() int {
	return m.frames
}

// Interrupted reports whether the user asked to quit.
func (m DashboardModel) Interrupted() bool {
	return m.interrupted
}

// View renders the current frame.
func (m DashboardModel) View() string {
	if m.Phase() == PhaseBanner {
		return m.renderBanner()
	}
	return m.renderRadar()
}

func (m DashboardModel) renderBanner() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(strings.Join(Logo, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(m.label.Render(Label))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderTail())
	return sb.String()
}

func (m DashboardModel) renderRadar() string {
	view := NewRadarView(m.sim, m.opts.Renderer, m.opts.Plain)
	label := lipgloss.PlaceHorizontal(view.Size(), lipgloss.Center, m.label.Render(Label))
	radarBlock := view.View() + "\n" + label
	top := lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(Logo, "\n"), "   ", radarBlock)
	sep := strings.Repeat("-", lipgloss.Width(top))
	return top + "\n" + sep + "\n" + m.renderTail()
}

func (m DashboardModel) renderTail() string {
	lines := m.format.FormatAll(m.tail.Recent(m.opts.ConsoleHeight))
	if m.width > 0 {
		for i, l := range lines {
			lines[i] = ansi.Truncate(l, m.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

// FinalView renders the static dump written after the display has stopped:
// clear screen, cursor home, then the last entries of the log.
func FinalView(tail domain.LogTail, f eventlog.Formatter, height int) string {
	var sb strings.Builder
	sb.WriteString(ansi.EraseEntireScreen)
	sb.WriteString(ansi.CursorHomePosition)
	for _, l := range f.FormatAll(tail.Recent(height)) {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String()
}
