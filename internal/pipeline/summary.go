package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Summary is the on-disk form of a Report.
type Summary struct {
	RunID     string         `toml:"run_id"`
	Target    string         `toml:"target"`
	StartedAt time.Time      `toml:"started_at"`
	Duration  string         `toml:"duration"`
	Failed    int            `toml:"failed"`
	Stages    []StageSummary `toml:"stages"`
}

// StageSummary is the outcome of one stage in a Summary.
type StageSummary struct {
	Name     string `toml:"name"`
	Status   string `toml:"status"`
	ExitCode int    `toml:"exit_code"`
	Duration string `toml:"duration"`
	Error    string `toml:"error,omitempty"`
}

// NewSummary converts a report into its on-disk form.
func NewSummary(rep Report) Summary {
	s := Summary{
		RunID:     rep.RunID,
		Target:    rep.Target,
		StartedAt: rep.StartedAt.UTC().Truncate(time.Second),
		Duration:  rep.Duration.Round(time.Millisecond).String(),
		Failed:    len(rep.Failed()),
	}
	for _, res := range rep.Results {
		ss := StageSummary{
			Name:     res.Stage,
			Status:   string(res.Status),
			ExitCode: res.ExitCode,
			Duration: res.Duration.Round(time.Millisecond).String(),
		}
		if res.Err != nil {
			ss.Error = res.Err.Error()
		}
		s.Stages = append(s.Stages, ss)
	}
	return s
}

// WriteSummary encodes rep as TOML at path.
func WriteSummary(path string, rep Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(NewSummary(rep)); err != nil {
		f.Close()
		return fmt.Errorf("encoding summary: %w", err)
	}
	return f.Close()
}

// ReadSummary decodes a summary previously written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	var s Summary
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Summary{}, fmt.Errorf("reading summary: %w", err)
	}
	return s, nil
}
