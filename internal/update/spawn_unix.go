//go:build !windows

package update

import (
	"os"
	"os/exec"
	"syscall"
)

// spawnCommand builds the detached background updater process. The child
// gets its own session so it survives the parent's exit, with stdio wired
// to the autoupdate log.
func (a *Autoupdater) spawnCommand(binPath string, logf *os.File) *exec.Cmd {
	cmd := exec.Command(binPath, "update", "--autoupdate")
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}
