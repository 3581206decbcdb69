package spawn

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Handle tracks a detached process just long enough for the liveness probe.
// The process is not managed beyond that: it outlives the launcher and is
// terminated externally.
type Handle struct {
	pid  int
	done chan struct{}
}

// logFilePermissions is used when creating log files for the child's output.
const logFilePermissions = 0o644

// Detached spawns the command detached into its own session/process group,
// with standard input suppressed and standard output/error appended to the
// provided log files. The child survives the launcher's exit.
func Detached(path string, args []string, stdoutPath, stderrPath string) (*Handle, error) {
	stdoutFile, err := openLogFile(stdoutPath)
	if err != nil {
		return nil, err
	}

	stderrFile, err := openLogFile(stderrPath)
	if err != nil {
		_ = stdoutFile.Close()

		return nil, err
	}

	// Stdin stays nil so the child reads from the null device.
	//nolint:gosec // The command is the launcher's own pointer path by design.
	cmd := exec.Command(path, args...)
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	configureDetachedAttrs(cmd)

	if err = cmd.Start(); err != nil {
		_ = stdoutFile.Close()
		_ = stderrFile.Close()

		return nil, fmt.Errorf("spawn %s: %w", path, err)
	}

	handle := &Handle{
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	// Reap the child if it exits while we are still around; otherwise the
	// goroutine dies with the launcher and the detached child is orphaned
	// to the init process as intended.
	go func() {
		_ = cmd.Wait()

		_ = stdoutFile.Close()
		_ = stderrFile.Close()

		close(handle.done)
	}()

	return handle, nil
}

// PID returns the spawned process identifier.
func (h *Handle) PID() int {
	return h.pid
}

// ExitedWithin waits up to the provided delay and reports whether the
// process exited during it. This is the liveness probe: a fast exit
// usually means startup failed, though a legitimately fast-exiting
// application is indistinguishable from one.
func (h *Handle) ExitedWithin(delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

func openLogFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}
