//go:build windows

package spawn

import (
	"os/exec"
	"syscall"
)

// createNoWindow suppresses the console window for the spawned process.
const createNoWindow = 0x08000000

// configureDetachedAttrs starts the child in its own process group,
// without a console window, so it survives the launcher's exit.
func configureDetachedAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | createNoWindow,
	}
}
