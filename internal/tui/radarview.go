package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/romso/r4d4r/internal/radar"
)

const (
	// aspect compensates for terminal cells being taller than wide.
	aspect   = 1.8
	trailLen = 6
)

// radarStyles holds the cell styles of the radar grid.
type radarStyles struct {
	border   lipgloss.Style
	interior lipgloss.Style
	sweep    lipgloss.Style
	blip     lipgloss.Style
	hit      lipgloss.Style
}

func newRadarStyles(r *lipgloss.Renderer) radarStyles {
	green := lipgloss.Color("2")
	return radarStyles{
		border:   r.NewStyle().Foreground(green).Faint(true),
		interior: r.NewStyle().Foreground(green).Faint(true),
		sweep:    r.NewStyle().Foreground(green),
		blip:     r.NewStyle().Foreground(lipgloss.Color("1")),
		hit:      r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// RadarView is an immutable snapshot of the simulation ready to be drawn.
type RadarView struct {
	radius int
	step   float64
	sweep  float64
	blips  []radar.Blip
	plain  bool
	styles radarStyles
}

// NewRadarView snapshots sim. When plain is set, cells are drawn with ASCII
// markers only.
func NewRadarView(sim *radar.Sim, r *lipgloss.Renderer, plain bool) RadarView {
	cfg := sim.Config()
	return RadarView{
		radius: cfg.Radius,
		step:   cfg.SweepStep,
		sweep:  sim.Sweep(),
		blips:  sim.Blips(),
		plain:  plain,
		styles: newRadarStyles(r),
	}
}

// Size returns the side length of the square grid.
func (v RadarView) Size() int {
	return 2*v.radius + 1
}

type cell struct {
	ch    string
	style *lipgloss.Style
}

// Lines renders the grid row by row.
func (v RadarView) Lines() []string {
	size := v.Size()
	if size <= 0 {
		return nil
	}
	grid := make([][]cell, size)
	for y := range grid {
		grid[y] = make([]cell, size)
		for x := range grid[y] {
			grid[y][x] = cell{ch: " "}
		}
	}
	c := float64(v.radius)
	r := float64(v.radius)
	put := func(x, y float64, ch string, style *lipgloss.Style) bool {
		gx, gy := int(math.Round(x)), int(math.Round(y))
		if gx < 0 || gy < 0 || gx >= size || gy >= size {
			return false
		}
		grid[gy][gx] = cell{ch: ch, style: style}
		return true
	}

	for deg := 0; deg < 360; deg++ {
		theta := float64(deg) * math.Pi / 180
		put(c+math.Cos(theta)*r, c+math.Sin(theta)*r/aspect, "·", &v.styles.border)
	}

	interior := "·"
	if v.plain {
		interior = "."
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - c
			dy := (float64(y) - c) * aspect
			if dx*dx+dy*dy <= r*r && grid[y][x].ch == " " {
				grid[y][x] = cell{ch: interior, style: &v.styles.interior}
			}
		}
	}

	for t := 0; t < trailLen; t++ {
		a := v.sweep - float64(t)*v.step*0.9
		ch := "*"
		if t > 0 && !v.plain {
			ch = "."
		}
		for i := 0; i < v.radius; i++ {
			d := float64(i)
			put(c+math.Cos(a)*d, c+math.Sin(a)*d/aspect, ch, &v.styles.sweep)
		}
	}

	for _, b := range v.blips {
		ch, style := "•", &v.styles.blip
		if b.Hit() {
			ch, style = "●", &v.styles.hit
		}
		if v.plain {
			ch = "o"
			if b.Hit() {
				ch = "O"
			}
		}
		put(c+math.Cos(b.Angle)*b.Radius, c+math.Sin(b.Angle)*b.Radius/aspect, ch, style)
	}

	lines := make([]string, size)
	for y, row := range grid {
		var sb strings.Builder
		for _, cl := range row {
			if cl.style == nil || v.plain {
				sb.WriteString(cl.ch)
				continue
			}
			sb.WriteString(cl.style.Render(cl.ch))
		}
		lines[y] = sb.String()
	}
	return lines
}

// View renders the grid as a block.
func (v RadarView) View() string {
	return strings.Join(v.Lines(), "\n")
}
