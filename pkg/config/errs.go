package config

import "errors"

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")

	// ErrUnknownParam indicates a report axis that is not part of the grid.
	ErrUnknownParam = errors.New("config: parameter not in grid")
)
