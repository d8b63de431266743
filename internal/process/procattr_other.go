//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setDetachedProcAttr starts the app process in a new session, so it keeps
// running when the launcher exits or updates itself.
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
