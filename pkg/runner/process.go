package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Spec locates the simulation program.
//
// With an empty Launcher the executable <Program>/<Script> is run directly in
// the job directory with one "--name=value" argument per parameter. With a
// Launcher (for ns-3: ./ns3 run --quiet --no-build) the launcher runs inside
// Program and receives "--cwd=<job dir>" followed by a single argument
// "<Script> --name=value ...".
type Spec struct {
	Program   string
	Script    string
	Launcher  []string
	SeedParam string
}

// Check verifies that the program can be located.
func (s Spec) Check() error {
	if s.Script == "" {
		return ErrNoScript
	}
	st, err := os.Stat(s.Program)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, s.Program)
	}
	var exe string
	switch {
	case len(s.Launcher) == 0:
		exe = filepath.Join(s.Program, s.Script)
	case strings.ContainsRune(s.Launcher[0], filepath.Separator):
		exe = s.resolve(s.Launcher[0])
	default:
		if _, err := exec.LookPath(s.Launcher[0]); err != nil {
			return fmt.Errorf("%w: %s", ErrProgramNotFound, s.Launcher[0])
		}
		return nil
	}
	if st, err := os.Stat(exe); err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, exe)
	}
	return nil
}

func (s Spec) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Program, p)
}

// Command returns the executable, its arguments and the working directory
// for job.
func (s Spec) Command(job Job) (name string, args []string, dir string) {
	params := job.Combination.Args(s.SeedParam, job.Seed)
	if len(s.Launcher) == 0 {
		return s.resolve(s.Script), params, job.Dir
	}

	name = s.Launcher[0]
	if strings.ContainsRune(name, filepath.Separator) {
		name = s.resolve(name)
	}
	args = append(args, s.Launcher[1:]...)
	args = append(args, "--cwd="+job.Dir)
	args = append(args, strings.Join(append([]string{s.Script}, params...), " "))
	return name, args, s.Program
}

// Process runs jobs as child processes.
type Process struct {
	spec      Spec
	waitDelay time.Duration
}

// NewProcess returns a process runner. Program is made absolute so that runs
// with a different working directory still find it.
func NewProcess(spec Spec) (*Process, error) {
	abs, err := filepath.Abs(spec.Program)
	if err != nil {
		return nil, fmt.Errorf("runner: resolve program: %w", err)
	}
	spec.Program = abs
	return &Process{spec: spec, waitDelay: 5 * time.Second}, nil
}

// Spec returns the resolved program spec.
func (p *Process) Spec() Spec { return p.spec }

// Run executes job and waits for it. Cancelling ctx kills the run (and, on
// Linux, its whole process group).
func (p *Process) Run(ctx context.Context, job Job) (Output, error) {
	name, args, dir := p.spec.Command(job)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = p.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	out := Output{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if ps := cmd.ProcessState; ps != nil {
		out.ExitStatus = ps.ExitCode()
		out.UserTime = ps.UserTime()
		out.SystemTime = ps.SystemTime()
		out.MaxRSS = maxRSS(ps)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, &RunError{Job: job, ExitStatus: out.ExitStatus, Stderr: out.Stderr}
		}
		return out, fmt.Errorf("runner: exec %s: %w", name, err)
	}
	return out, nil
}
