package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/romso/r4d4r/internal/domain"
)

// SummaryFile is the name of the run summary written into the output directory.
const SummaryFile = "run.toml"

// FinalMessage is the last line appended after a completed walk.
const FinalMessage = "R4D4R ... N0 M0R3 S1GN4L ..."

// Report aggregates the outcome of one walk.
type Report struct {
	RunID     string
	Target    string
	StartedAt time.Time
	Duration  time.Duration
	Results   []domain.StageResult
}

// Result returns the result for the named stage.
func (r Report) Result(name string) (domain.StageResult, bool) {
	for _, res := range r.Results {
		if res.Stage == name {
			return res, true
		}
	}
	return domain.StageResult{}, false
}

// Failed returns every result that did not succeed.
func (r Report) Failed() []domain.StageResult {
	var out []domain.StageResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Executor runs a Graph to completion. Stage failures are logged and
// tolerated; only failures of the executor's own control flow abort the walk.
type Executor struct {
	runner domain.ProcessRunner
	events domain.EventSink
	graph  Graph
	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
	// Now is the clock used for the report. Defaults to time.Now.
	Now func() time.Time
}

// NewExecutor creates an Executor for graph.
func NewExecutor(runner domain.ProcessRunner, events domain.EventSink, graph Graph) *Executor {
	return &Executor{
		runner: runner,
		events: events,
		graph:  graph,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    time.Now,
	}
}

// Run walks the graph step by step. Once ctx is canceled no further step is
// started, the running one is left to the runner to kill, and neither the
// summary nor the final line is produced.
//
// The returned error is non-nil only for internal failures and wraps
// domain.ErrInternal. The report holds every result produced before the
// failure.
func (e *Executor) Run(ctx context.Context, pctx domain.PipelineContext) (rep Report, err error) {
	rep = Report{RunID: pctx.RunID, Target: pctx.Target, StartedAt: e.Now()}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrInternal, r)
		}
		rep.Duration = e.Now().Sub(rep.StartedAt)
	}()

	if err := e.graph.Validate(); err != nil {
		return rep, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if err := prepareOutputTree(pctx.OutputDir, e.graph); err != nil {
		return rep, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}

	done := map[string]domain.StageResult{}
	for _, step := range e.graph.Steps() {
		if ctx.Err() != nil {
			e.Logger.Debug("run canceled", "next", step.Stages[0].Name, "err", ctx.Err())
			return rep, nil
		}
		e.announce(step)
		results, stepErr := e.runStep(ctx, pctx, step, done)
		for i, res := range results {
			if res.Stage == "" {
				continue
			}
			done[res.Stage] = res
			rep.Results = append(rep.Results, res)
			e.reportStage(step.Stages[i], res)
		}
		if stepErr != nil {
			return rep, stepErr
		}
	}

	if ctx.Err() != nil {
		return rep, nil
	}
	rep.Duration = e.Now().Sub(rep.StartedAt)
	if err := WriteSummary(filepath.Join(pctx.OutputDir, SummaryFile), rep); err != nil {
		e.events.Appendf(domain.LevelWarn, "could not write run summary: %v", err)
	}
	e.events.Append(domain.LevelDone, FinalMessage)
	return rep, nil
}

func (e *Executor) runStep(ctx context.Context, pctx domain.PipelineContext, step Step, done map[string]domain.StageResult) ([]domain.StageResult, error) {
	results := make([]domain.StageResult, len(step.Stages))
	var g errgroup.Group
	for i, st := range step.Stages {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: stage %s panicked: %v", domain.ErrInternal, st.Name, r)
				}
			}()
			res := e.runStage(ctx, pctx, st, done)
			if err := writeArtifacts(st, res); err != nil {
				results[i] = res
				return fmt.Errorf("%w: %s: %w", domain.ErrInternal, st.Name, err)
			}
			results[i] = res
			e.removeInputs(st, res)
			return nil
		})
	}
	return results, g.Wait()
}

func (e *Executor) runStage(ctx context.Context, pctx domain.PipelineContext, st domain.Stage, done map[string]domain.StageResult) domain.StageResult {
	for _, req := range st.Requires {
		if prev := done[req]; !prev.OK() {
			return domain.StageResult{
				Stage:    st.Name,
				Status:   domain.StatusSkipped,
				ExitCode: domain.ExitTimedOut,
				Err:      fmt.Errorf("required stage %s did not succeed", req),
			}
		}
	}

	timeout := pctx.TimeoutFor(st)
	e.Logger.Debug("stage starting", "stage", st.Name, "command", st.Command.String(), "timeout", timeout)
	res, err := e.runner.Run(ctx, st.Command, st.Dir, timeout)
	res.Stage = st.Name
	if err != nil && res.Err == nil {
		res.Err = err
	}
	if err != nil && res.Status == "" {
		res.Status = domain.StatusNotStarted
	}
	e.Logger.Debug("stage finished", "stage", st.Name, "status", res.Status, "exit", res.ExitCode, "duration", res.Duration)
	return res
}

func (e *Executor) announce(step Step) {
	names := make([]string, len(step.Stages))
	for i, s := range step.Stages {
		names[i] = s.DisplayName()
	}
	e.events.Appendf(domain.LevelStart, "Starting %s", strings.Join(names, " + "))
}

func (e *Executor) reportStage(st domain.Stage, res domain.StageResult) {
	name := st.DisplayName()
	switch res.Status {
	case domain.StatusSucceeded:
		e.events.Appendf(domain.LevelDone, "%s finished (%d lines)", name, countLines(res.Stdout))
	case domain.StatusFailed:
		e.events.Appendf(domain.LevelWarn, "%s exit %d", name, res.ExitCode)
		if line := res.FirstStderrLine(); line != "" {
			e.events.Appendf(domain.LevelWarn, "%s stderr: %s", name, line)
		}
	case domain.StatusTimedOut:
		e.events.Appendf(domain.LevelWarn, "%s %s", name, res.Stderr)
	case domain.StatusNotStarted:
		e.events.Appendf(domain.LevelWarn, "%s could not start: %v", name, res.Err)
	case domain.StatusSkipped:
		e.events.Appendf(domain.LevelWarn, "%s skipped: %v", name, res.Err)
	case domain.StatusCanceled:
		e.events.Appendf(domain.LevelWarn, "%s canceled", name)
	}
	if !res.OK() && st.Output.EmptyOnFailure {
		e.events.Appendf(domain.LevelError, "%s failed (code %d), continuing with empty input", name, res.ExitCode)
	}
}

// prepareOutputTree creates the output root and every artifact directory.
func prepareOutputTree(root string, g Graph) error {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	for _, s := range g.Stages() {
		for _, p := range []string{s.Output.Stdout, s.Output.Stderr} {
			if p == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

func writeArtifacts(st domain.Stage, res domain.StageResult) error {
	a := st.Output
	if a.Stdout != "" {
		out := res.Stdout
		switch {
		case !res.OK() && a.EmptyOnFailure:
			if err := os.WriteFile(a.Stdout, nil, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", a.Stdout, err)
			}
		case a.SkipEmpty && strings.TrimSpace(out) == "":
		default:
			if a.EnsureNewline && out != "" && !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			if err := os.WriteFile(a.Stdout, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", a.Stdout, err)
			}
		}
	}
	if a.Stderr != "" && res.Stderr != "" {
		if err := os.WriteFile(a.Stderr, []byte(res.Stderr), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.Stderr, err)
		}
	}
	return nil
}

// removeInputs deletes the stage's consumed inputs after a success. Failures
// are only reported.
func (e *Executor) removeInputs(st domain.Stage, res domain.StageResult) {
	if !res.OK() {
		return
	}
	for _, p := range st.Output.RemoveOnSuccess {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.events.Appendf(domain.LevelWarn, "could not remove %s: %v", filepath.Base(p), err)
		}
	}
}

func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
