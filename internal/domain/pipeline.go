package domain

import (
	"strings"
	"time"
)

// StageStatus represents the outcome of a single stage.
type StageStatus string

const (
	StatusSucceeded  StageStatus = "succeeded"
	StatusFailed     StageStatus = "failed"
	StatusTimedOut   StageStatus = "timed_out"
	StatusNotStarted StageStatus = "not_started"
	StatusSkipped    StageStatus = "skipped"
	StatusCanceled   StageStatus = "canceled"
)

// ExitTimedOut is the exit code reported for processes that were killed
// before they could exit on their own.
const ExitTimedOut = -1

// CommandSpec describes how to invoke one external program.
// Exactly one of Argv or Shell is set.
type CommandSpec struct {
	// Argv is executed directly, without shell interpretation.
	Argv []string
	// Shell is passed to "sh -c". Only used for composed pipelines of
	// collaborator programs, e.g. "cat in | httpx > out".
	Shell string
}

// IsShell reports whether the spec is a shell-interpreted string.
func (c CommandSpec) IsShell() bool {
	return c.Shell != ""
}

// IsZero reports whether the spec names nothing to run.
func (c CommandSpec) IsZero() bool {
	return len(c.Argv) == 0 && strings.TrimSpace(c.Shell) == ""
}

// String renders the command for log lines.
func (c CommandSpec) String() string {
	if c.IsShell() {
		return c.Shell
	}
	return strings.Join(c.Argv, " ")
}

// Artifacts tells the executor where a stage's captured streams go.
type Artifacts struct {
	// Stdout receives the captured standard output. Empty means discard.
	Stdout string
	// Stderr receives the captured standard error when it is non-empty.
	Stderr string
	// SkipEmpty writes Stdout only when the output is not blank.
	SkipEmpty bool
	// EnsureNewline appends a trailing newline to non-empty output.
	EnsureNewline bool
	// EmptyOnFailure truncates Stdout to empty when the stage did not
	// succeed, so downstream stages read an empty input.
	EmptyOnFailure bool
	// RemoveOnSuccess lists files deleted once the stage succeeded.
	RemoveOnSuccess []string
}

// Stage is one node of the pipeline graph, backed by one process.
type Stage struct {
	Name string
	// Label is the human-readable name used in log lines.
	Label   string
	Command CommandSpec
	Dir     string
	// Timeout is the stage deadline. Zero means PipelineContext.Timeout.
	Timeout time.Duration
	// Group is the parallel group id. Consecutive stages sharing a
	// non-empty group run together.
	Group string
	// After lists stages that must have run before this one.
	After []string
	// Requires lists stages that must have succeeded; otherwise this
	// stage is skipped.
	Requires []string
	Output   Artifacts
}

// DisplayName returns Label, falling back to Name.
func (s Stage) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// StageResult is the outcome of running one Stage.
type StageResult struct {
	Stage    string
	Status   StageStatus
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// OK reports whether the stage exited with status zero.
func (r StageResult) OK() bool {
	return r.Status == StatusSucceeded
}

// FirstStderrLine returns the first non-blank line of stderr.
func (r StageResult) FirstStderrLine() string {
	for _, line := range strings.Split(r.Stderr, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// PipelineContext carries the per-run parameters shared by every stage.
type PipelineContext struct {
	RunID     string
	Target    string
	OutputDir string
	Timeout   time.Duration
}

// TimeoutFor returns the effective deadline for a stage.
func (p PipelineContext) TimeoutFor(s Stage) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return p.Timeout
}
