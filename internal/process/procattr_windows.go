//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

// setDetachedProcAttr configures the app process to run detached from the
// launcher, so it keeps running when the launcher exits or updates itself.
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // 0x00000008 is DETACHED_PROCESS
	}
}
