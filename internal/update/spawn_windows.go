//go:build windows

package update

import (
	"os"
	"os/exec"
)

// spawnCommand builds the detached background updater process. Windows has
// no process groups to detach from in the POSIX sense; the child is run
// through the command interpreter with stdio wired to the autoupdate log.
func (a *Autoupdater) spawnCommand(binPath string, logf *os.File) *exec.Cmd {
	comspec := os.Getenv("COMSPEC")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.Command(comspec, "/c", binPath, "update", "--autoupdate")
	cmd.Stdout = logf
	cmd.Stderr = logf
	return cmd
}
