//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child as the leader of a new process group, so
// the group id equals the child's pid and tools that fork helpers can be
// stopped as a unit.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killProcessGroup sends SIGKILL to every member of p's group. A group that
// is already empty is not an error. Any other failure falls back to killing
// the leader alone.
func killProcessGroup(p *os.Process) {
	if p == nil {
		return
	}
	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return
	}
	_ = p.Kill()
}
