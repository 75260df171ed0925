//go:build linux

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/simcampaign/pkg/types"
)

// setProcessGroup puts the run into its own process group so cancellation
// also reaches helpers it spawned (the ns3 launcher forks the real binary).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}

// maxRSS reads the peak resident set size from rusage (reported in KiB).
func maxRSS(ps *os.ProcessState) types.Bytes {
	ru, ok := ps.SysUsage().(*syscall.Rusage)
	if !ok || ru == nil || ru.Maxrss < 0 {
		return 0
	}
	return types.ToBytes(uint64(ru.Maxrss) * 1024)
}
