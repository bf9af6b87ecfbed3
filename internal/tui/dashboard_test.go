package tui_test

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/romso/r4d4r/internal/domain"
	"github.com/romso/r4d4r/internal/eventlog"
	"github.com/romso/r4d4r/internal/radar"
	"github.com/romso/r4d4r/internal/tui"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newModel(log *eventlog.Log) (tui.DashboardModel, *radar.Sim) {
	sim := radar.New(radar.DefaultConfig(), 1)
	m := tui.NewDashboardModel(log, sim, tui.Options{
		Cadence:        10 * time.Millisecond,
		BannerDuration: 3 * time.Second,
		ConsoleHeight:  3,
		Renderer:       eventlog.NewRenderer(io.Discard, false),
		Plain:          true,
	})
	return m, sim
}

func frame(m tui.DashboardModel, at time.Time) (tui.DashboardModel, tea.Cmd) {
	updated, cmd := m.Update(tui.FrameMsg{At: at})
	return updated.(tui.DashboardModel), cmd
}

func TestDashboard_StartsInBannerPhase(t *testing.T) {
	log := eventlog.New()
	log.Append(domain.LevelInfo, "hello")
	m, sim := newModel(log)

	m, cmd := frame(m, t0)
	m, _ = frame(m, t0.Add(time.Second))

	if m.Phase() != tui.PhaseBanner {
		t.Fatalf("expected banner phase")
	}
	if cmd == nil {
		t.Error("expected next frame to be scheduled")
	}
	if sim.Sweep() != 0 {
		t.Errorf("radar must not move during the banner, sweep %v", sim.Sweep())
	}
	view := m.View()
	if !strings.Contains(view, tui.Logo[0]) || !strings.Contains(view, tui.Label) {
		t.Errorf("expected logo and label, got:\n%s", view)
	}
	if !strings.Contains(view, "hello") {
		t.Errorf("expected log tail under the banner, got:\n%s", view)
	}
}

func TestDashboard_SwitchesToRadarAfterBanner(t *testing.T) {
	log := eventlog.New()
	m, sim := newModel(log)

	m, _ = frame(m, t0)
	m, _ = frame(m, t0.Add(3*time.Second))

	if m.Phase() != tui.PhaseRadar {
		t.Fatalf("expected radar phase")
	}
	if sim.Sweep() == 0 {
		t.Error("expected the radar to advance")
	}
	if m.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", m.Frames())
	}
	view := m.View()
	if !strings.Contains(view, "---") {
		t.Errorf("expected separator, got:\n%s", view)
	}
	if !strings.Contains(view, tui.Label) || !strings.Contains(view, "*") {
		t.Errorf("expected radar and label, got:\n%s", view)
	}
	if strings.Contains(view, "\x1b[") {
		t.Error("plain view must not contain escape sequences")
	}
}

func TestDashboard_ShowsOnlyNewestEntries(t *testing.T) {
	log := eventlog.New()
	for i := 0; i < 10; i++ {
		log.Appendf(domain.LevelInfo, "line %02d", i)
	}
	m, _ := newModel(log)
	m, _ = frame(m, t0)
	m, _ = frame(m, t0.Add(5*time.Second))

	view := m.View()
	for i := 0; i < 7; i++ {
		if strings.Contains(view, fmt.Sprintf("line %02d", i)) {
			t.Errorf("line %02d should have scrolled out", i)
		}
	}
	for i := 7; i < 10; i++ {
		if !strings.Contains(view, fmt.Sprintf("line %02d", i)) {
			t.Errorf("expected line %02d in view", i)
		}
	}
}

func TestDashboard_TruncatesTailToWindowWidth(t *testing.T) {
	log := eventlog.New()
	log.Append(domain.LevelWarn, strings.Repeat("x", 200))
	m, _ := newModel(log)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = updated.(tui.DashboardModel)

	lines := strings.Split(m.View(), "\n")
	last := lines[len(lines)-1]
	if w := ansi.StringWidth(last); w > 40 {
		t.Errorf("expected tail line to fit in 40 columns, got %d", w)
	}
}

func TestDashboard_StopMsgQuits(t *testing.T) {
	m, _ := newModel(eventlog.New())

	updated, cmd := m.Update(tui.StopMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg")
	}
	m = updated.(tui.DashboardModel)
	if m.Interrupted() {
		t.Error("stop must not count as an interruption")
	}
	if _, cmd := frame(m, t0); cmd != nil {
		t.Error("no frame should be scheduled after stop")
	}
}

func TestDashboard_QuitKeysMarkInterrupted(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		m, _ := newModel(eventlog.New())
		updated, cmd := m.Update(key)
		if !updated.(tui.DashboardModel).Interrupted() {
			t.Errorf("%s: expected interrupted", key)
		}
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected QuitMsg", key)
		}
	}
}

func TestDashboard_InterruptMsgMarksInterrupted(t *testing.T) {
	m, _ := newModel(eventlog.New())

	updated, cmd := m.Update(tea.InterruptMsg{})
	m = updated.(tui.DashboardModel)
	if !m.Interrupted() {
		t.Error("expected interrupted")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg")
	}
	if _, cmd := frame(m, t0); cmd != nil {
		t.Error("no frame should be scheduled after an interrupt")
	}
}

func TestFinalView_ClearsAndDumpsTail(t *testing.T) {
	log := eventlog.New()
	for i := 0; i < 5; i++ {
		log.Appendf(domain.LevelInfo, "entry %d", i)
	}
	out := tui.FinalView(log, eventlog.NewFormatter(io.Discard, false), 2)

	if !strings.HasPrefix(out, "\x1b[2J\x1b[H") {
		t.Errorf("expected clear and home prefix, got %q", out)
	}
	if strings.Contains(out, "entry 2") || !strings.Contains(out, "entry 3") || !strings.Contains(out, "entry 4\n") {
		t.Errorf("expected the last two entries, got %q", out)
	}
}

func TestDashboard_ProgramRestoresCursorOnce(t *testing.T) {
	m, _ := newModel(eventlog.New())
	var out bytes.Buffer
	p := tea.NewProgram(m, tea.WithOutput(&out), tea.WithInput(nil), tea.WithoutSignalHandler())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()
	time.Sleep(50 * time.Millisecond)
	p.Send(tui.StopMsg{})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.Kill()
		t.Fatal("program did not stop")
	}
	if got := strings.Count(out.String(), ansi.ShowCursor); got != 1 {
		t.Errorf("expected cursor to be shown once, got %d", got)
	}
}
