package runner

import "errors"

var (
	// ErrProgramNotFound indicates the simulation program directory or
	// executable does not exist.
	ErrProgramNotFound = errors.New("runner: simulation program not found")

	// ErrRunFailed indicates a simulation exited with a non-zero status.
	ErrRunFailed = errors.New("runner: simulation failed")

	// ErrNoScript indicates an empty script name.
	ErrNoScript = errors.New("runner: no script")

	// ErrDisabled is returned by Disabled.
	ErrDisabled = errors.New("runner: simulations disabled")
)
