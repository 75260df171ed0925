// Package runner executes single simulation runs of an external program and
// captures what a campaign stores about them: standard output and error,
// exit status, wall time and resource usage.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/types"
)

// DefaultSeedParam is the command-line parameter carrying the run seed.
const DefaultSeedParam = "RngRun"

// Job is one (configuration, repetition) pair to execute.
type Job struct {
	Combination sweep.Combination
	Repetition  int
	Seed        int
	// Dir is the run's working directory; it must exist.
	Dir string
}

func (j Job) String() string {
	return fmt.Sprintf("%s rep=%d", j.Combination, j.Repetition)
}

// Output is everything observed about a finished run.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	Elapsed    time.Duration
	UserTime   time.Duration
	SystemTime time.Duration
	MaxRSS     types.Bytes
}

// Runner executes one job and blocks until it finishes.
type Runner interface {
	Run(ctx context.Context, job Job) (Output, error)
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, job Job) (Output, error)

func (f Func) Run(ctx context.Context, job Job) (Output, error) { return f(ctx, job) }

// Disabled refuses every job. It lets read-only commands open a campaign
// without the simulator being installed.
var Disabled Runner = Func(func(context.Context, Job) (Output, error) {
	return Output{}, ErrDisabled
})

// RunError reports a non-zero exit. It unwraps to ErrRunFailed.
type RunError struct {
	Job        Job
	ExitStatus int
	Stderr     string
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("runner: %s exited with status %d", e.Job, e.ExitStatus)
	if tail := Tail(e.Stderr, 5); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *RunError) Unwrap() error { return ErrRunFailed }

// Tail returns the last n non-empty lines of s joined by " | ".
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var out []string
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			out = append([]string{l}, out...)
		}
	}
	return strings.Join(out, " | ")
}
