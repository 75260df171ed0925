//go:build !linux

package runner

import (
	"os"
	"os/exec"

	"github.com/ja7ad/simcampaign/pkg/types"
)

func setProcessGroup(*exec.Cmd) {}

func maxRSS(*os.ProcessState) types.Bytes { return 0 }
