package qemu

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/jbweber/qemubox/internal/errdefs"
)

// Result describes how the hypervisor process ended.
type Result struct {
	// ExitCode is the process exit status. A process killed by a signal
	// reports 128 + the signal number, the shell convention.
	ExitCode int

	// Signal is the terminating signal, or empty if the process exited.
	Signal string
}

// Success reports whether the hypervisor exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0 && r.Signal == ""
}

// Process describes one hypervisor invocation.
type Process struct {
	Binary string
	Args   []string

	// Role names the process in errors and logs. Empty means "hypervisor".
	Role string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the process and waits for it to exit.
//
// A failure to start returns a KindProcess error. A process that runs and
// then exits non-zero is not an error: its status is reported in Result so
// the caller can tell a clean shutdown from a crash.
func Run(ctx context.Context, p Process) (Result, error) {
	binary := p.Binary
	if binary == "" {
		binary = Binary()
	}

	role := p.Role
	if role == "" {
		role = "hypervisor"
	}

	cmd := exec.CommandContext(ctx, binary, p.Args...)
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	log.WithField("args", p.Args).Debugf("Starting %s...", binary)
	if err := cmd.Start(); err != nil {
		return Result{}, errdefs.Process("start "+role, binary, err)
	}

	err := cmd.Wait()
	if err == nil {
		return Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Wait failed for a reason other than the exit status (e.g. copying
		// output failed); the process state is unknown.
		return Result{}, errdefs.Process("wait for "+role, binary, err)
	}

	return resultFromState(exitErr.ProcessState), nil
}

// resultFromState converts a finished process state to a Result.
func resultFromState(state *os.ProcessState) Result {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		return Result{ExitCode: 128 + int(sig), Signal: sig.String()}
	}
	return Result{ExitCode: state.ExitCode()}
}
