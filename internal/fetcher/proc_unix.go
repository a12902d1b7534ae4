//go:build unix

package fetcher

import (
	"os/exec"
	"syscall"
)

// killProcessGroup makes cancellation kill yt-dlp together with the ffmpeg
// children it spawns for audio extraction.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
