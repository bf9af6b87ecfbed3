package tui

import (
	"fmt"
	"strings"

	"github.com/romso/r4d4r/internal/domain"
)

// StageListModel is an immutable model for the stage outcome table printed
// after a run.
type StageListModel struct {
	results []domain.StageResult
}

// NewStageListModel creates a stage list model.
func NewStageListModel(results []domain.StageResult) StageListModel {
	return StageListModel{results: results}
}

// View renders one line per stage with a status icon and duration.
func (m StageListModel) View() string {
	if len(m.results) == 0 {
		return "No stages ran.\n"
	}
	var sb strings.Builder
	for _, r := range m.results {
		duration := "--"
		if r.Duration > 0 {
			duration = fmt.Sprintf("%ds", int(r.Duration.Seconds()))
		}
		sb.WriteString(fmt.Sprintf("  %s %-15s %-11s %s\n",
			statusIcon(r.Status),
			truncate(r.Stage, 15),
			r.Status,
			duration,
		))
	}
	return sb.String()
}

func statusIcon(s domain.StageStatus) string {
	switch s {
	case domain.StatusSucceeded:
		return "✓"
	case domain.StatusFailed, domain.StatusNotStarted:
		return "✗"
	case domain.StatusTimedOut:
		return "⧗"
	case domain.StatusSkipped:
		return "↷"
	case domain.StatusCanceled:
		return "○"
	default:
		return "?"
	}
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
