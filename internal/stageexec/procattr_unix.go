//go:build linux || darwin || freebsd || netbsd || openbsd

package stageexec

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// configureProcessGroup starts the child in its own process group. On
// cancellation the group gets SIGTERM, then SIGKILL after killGrace.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		pgid := -cmd.Process.Pid
		err := unix.Kill(pgid, unix.SIGTERM)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		time.AfterFunc(killGrace, func() {
			_ = unix.Kill(pgid, unix.SIGKILL)
		})
		return err
	}
}
