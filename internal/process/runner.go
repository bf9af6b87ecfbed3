// Package process runs external tools with a deadline and captures their output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/romso/r4d4r/internal/domain"
)

const defaultWaitDelay = 2 * time.Second

// Runner implements domain.ProcessRunner on top of os/exec.
type Runner struct {
	// ShellPath is the interpreter for shell-string commands. Defaults to
	// "sh" ("cmd" on windows).
	ShellPath string
	// WaitDelay bounds how long Wait may block on output pipes held open by
	// orphaned grandchildren once the process itself is gone.
	WaitDelay time.Duration
}

// Ensure Runner implements ProcessRunner.
var _ domain.ProcessRunner = (*Runner)(nil)

// NewRunner creates a Runner with default settings.
func NewRunner() *Runner {
	return &Runner{}
}

// Run starts spec in dir and waits for it to exit, for timeout to elapse, or
// for ctx to be canceled, whichever comes first. A timeout of zero means no
// deadline.
//
// On deadline the process group is killed and reaped before Run returns.
// Output captured up to that point is discarded and Stderr carries a
// synthetic "timed out after Ns" message.
//
// The returned error is non-nil only when the process could not be started;
// it wraps domain.ErrStartFailed.
func (r *Runner) Run(ctx context.Context, spec domain.CommandSpec, dir string, timeout time.Duration) (domain.StageResult, error) {
	if spec.IsZero() {
		err := fmt.Errorf("%w: empty command", domain.ErrStartFailed)
		return notStarted(err), err
	}

	if err := ctx.Err(); err != nil {
		return canceled(err, 0), nil
	}

	cmd := r.command(spec)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.waitDelay()
	setProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("%w: %s: %w", domain.ErrStartFailed, programName(spec), err)
		return notStarted(err), err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case waitErr := <-done:
		return exited(waitErr, stdout.String(), stderr.String(), time.Since(started)), nil
	case <-deadline:
		killProcessGroup(cmd.Process)
		<-done
		return domain.StageResult{
			Status:   domain.StatusTimedOut,
			ExitCode: domain.ExitTimedOut,
			Stderr:   "timed out after " + formatSeconds(timeout),
			Duration: time.Since(started),
			Err:      domain.ErrTimedOut,
		}, nil
	case <-ctx.Done():
		killProcessGroup(cmd.Process)
		<-done
		return canceled(ctx.Err(), time.Since(started)), nil
	}
}

func canceled(err error, elapsed time.Duration) domain.StageResult {
	return domain.StageResult{
		Status:   domain.StatusCanceled,
		ExitCode: domain.ExitTimedOut,
		Stderr:   "canceled",
		Duration: elapsed,
		Err:      err,
	}
}

func (r *Runner) command(spec domain.CommandSpec) *exec.Cmd {
	if spec.IsShell() {
		shell := r.ShellPath
		if runtime.GOOS == "windows" {
			if shell == "" {
				shell = "cmd"
			}
			return exec.Command(shell, "/C", spec.Shell)
		}
		if shell == "" {
			shell = "sh"
		}
		return exec.Command(shell, "-c", spec.Shell)
	}
	return exec.Command(spec.Argv[0], spec.Argv[1:]...)
}

func (r *Runner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return defaultWaitDelay
}

func exited(waitErr error, stdout, stderr string, elapsed time.Duration) domain.StageResult {
	res := domain.StageResult{
		Status:   domain.StatusSucceeded,
		Stdout:   strings.ToValidUTF8(stdout, ""),
		Stderr:   strings.ToValidUTF8(stderr, ""),
		Duration: elapsed,
	}
	if waitErr == nil {
		return res
	}
	res.Status = domain.StatusFailed
	res.Err = waitErr
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = domain.ExitTimedOut
	}
	return res
}

func notStarted(err error) domain.StageResult {
	return domain.StageResult{
		Status:   domain.StatusNotStarted,
		ExitCode: domain.ExitTimedOut,
		Stderr:   err.Error(),
		Err:      err,
	}
}

func programName(spec domain.CommandSpec) string {
	if spec.IsShell() {
		return "shell"
	}
	return spec.Argv[0]
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

// Quote returns s quoted for safe interpolation into a POSIX shell command.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.ContainsRune("@%+=:,./-_", c)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
