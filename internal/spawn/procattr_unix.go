//go:build !windows

package spawn

import (
	"os/exec"
	"syscall"
)

// configureDetachedAttrs starts the child in a new session so it is
// detached from the controlling terminal and survives the launcher's exit.
func configureDetachedAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
