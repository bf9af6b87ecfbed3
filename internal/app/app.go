// Package app coordinates the pipeline and the live display for one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/romso/r4d4r/internal/domain"
	"github.com/romso/r4d4r/internal/eventlog"
	"github.com/romso/r4d4r/internal/pipeline"
	"github.com/romso/r4d4r/internal/radar"
	"github.com/romso/r4d4r/internal/tui"
)

// ErrInterrupted is returned by Run when the user stopped the run.
var ErrInterrupted = errors.New("interrupted by user")

// InterruptedMessage is appended to the log when the run is interrupted.
const InterruptedMessage = "Interrupted by user."

const defaultStopTimeout = time.Second

// Pipeline runs the stage graph. *pipeline.Executor implements it.
type Pipeline interface {
	Run(ctx context.Context, pctx domain.PipelineContext) (pipeline.Report, error)
}

// Options wires one run.
type Options struct {
	Pipeline Pipeline
	Context  domain.PipelineContext
	Events   *eventlog.Log
	Sim      *radar.Sim
	// Dashboard configures the live display. Its Renderer is also used for
	// the final dump.
	Dashboard tui.Options
	// Output receives frames and the final dump. Defaults to os.Stdout.
	Output io.Writer
	// Input feeds key presses to the display. Nil disables input.
	Input io.Reader
	// StopTimeout bounds how long the display may take to exit gracefully
	// before it is killed.
	StopTimeout time.Duration
	// ProgramOptions are appended to the display program options.
	ProgramOptions []tea.ProgramOption
	Logger         *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Events == nil {
		o.Events = eventlog.New()
	}
	if o.Sim == nil {
		o.Sim = radar.New(radar.DefaultConfig(), uint64(time.Now().UnixNano()))
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Dashboard.Renderer == nil {
		o.Dashboard.Renderer = eventlog.NewRenderer(o.Output, true)
	}
	if o.Dashboard.ConsoleHeight <= 0 {
		o.Dashboard.ConsoleHeight = 8
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

type pipelineResult struct {
	report pipeline.Report
	err    error
}

type displayResult struct {
	model tea.Model
	err   error
}

func (d displayResult) interrupted() bool {
	if errors.Is(d.err, tea.ErrInterrupted) {
		return true
	}
	m, ok := d.model.(tui.DashboardModel)
	return ok && m.Interrupted()
}

// Run starts the display and the pipeline concurrently and returns once the
// pipeline finished, failed, or the run was interrupted through ctx or the
// display. The display is always stopped and the terminal restored before
// the final log dump is written.
//
// It returns nil on completion, ErrInterrupted on interruption, or the
// pipeline's internal error.
func Run(ctx context.Context, opts Options) error {
	if opts.Pipeline == nil {
		return errors.New("app: no pipeline configured")
	}
	opts = opts.withDefaults()
	events := opts.Events
	logger := opts.Logger

	pctx := opts.Context
	events.Appendf(domain.LevelBanner, "R4D4R started on %s (run %s) -> %s", pctx.Target, pctx.RunID, pctx.OutputDir)

	procCtx, cancelProcs := context.WithCancel(ctx)
	defer cancelProcs()

	progOpts := []tea.ProgramOption{tea.WithOutput(opts.Output), tea.WithoutSignalHandler()}
	if opts.Input == nil {
		progOpts = append(progOpts, tea.WithInput(nil))
	} else {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	progOpts = append(progOpts, opts.ProgramOptions...)
	prog := tea.NewProgram(tui.NewDashboardModel(events, opts.Sim, opts.Dashboard), progOpts...)

	displayDone := make(chan displayResult, 1)
	go func() {
		m, err := prog.Run()
		displayDone <- displayResult{model: m, err: err}
	}()

	pipeDone := make(chan pipelineResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				pipeDone <- pipelineResult{err: fmt.Errorf("%w: panic: %v", domain.ErrInternal, r)}
			}
		}()
		rep, err := opts.Pipeline.Run(procCtx, pctx)
		pipeDone <- pipelineResult{report: rep, err: err}
	}()

	var (
		result         error
		report         pipeline.Report
		displayRunning = true
		finished       bool
	)
wait:
	for {
		select {
		case r := <-pipeDone:
			finished = true
			report = r.report
			if r.err != nil {
				logger.Error("pipeline failed", "err", r.err)
				events.Appendf(domain.LevelWarn, "R4D4R exception: %v", r.err)
				result = r.err
			}
			break wait

		case <-ctx.Done():
			logger.Info("run canceled", "cause", context.Cause(ctx))
			result = ErrInterrupted
			break wait

		case d := <-displayDone:
			displayRunning = false
			if d.interrupted() {
				logger.Info("display interrupted")
				result = ErrInterrupted
				break wait
			}
			if d.err != nil {
				logger.Warn("display failed", "err", d.err)
				events.Appendf(domain.LevelWarn, "display unavailable, continuing without it: %v", d.err)
			}
			displayDone = nil
		}
	}

	if errors.Is(result, ErrInterrupted) {
		events.Append(domain.LevelWarn, InterruptedMessage)
		cancelProcs()
	}

	if displayRunning {
		stopDisplay(prog, displayDone, opts.StopTimeout, logger)
	}

	if !finished {
		// Give killed stages a moment to record their outcome.
		select {
		case r := <-pipeDone:
			report = r.report
		case <-time.After(opts.StopTimeout):
			logger.Warn("pipeline still running after interruption")
		}
	}

	formatter := eventlog.NewFormatterWithRenderer(opts.Dashboard.Renderer)
	fmt.Fprint(opts.Output, tui.FinalView(events, formatter, opts.Dashboard.ConsoleHeight))
	if finished && len(report.Results) > 0 {
		fmt.Fprint(opts.Output, "\n"+tui.NewStageListModel(report.Results).View())
	}
	return result
}

// stopDisplay asks the display to quit, then kills it after timeout. It
// returns only once the program has exited and restored the terminal.
func stopDisplay(prog *tea.Program, done <-chan displayResult, timeout time.Duration, logger *slog.Logger) {
	go prog.Send(tui.StopMsg{})
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("display did not stop in time, killing it")
		prog.Kill()
		<-done
	}
}
