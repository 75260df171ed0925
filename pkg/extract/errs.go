package extract

import (
	"errors"
	"fmt"
)

// ErrMalformedOutput indicates a run whose output does not contain the
// expected value.
var ErrMalformedOutput = errors.New("extract: malformed output")

// MalformedOutputError carries the offending output.
type MalformedOutputError struct {
	Stdout string
	Token  string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (token %q)", ErrMalformedOutput, e.Reason, e.Token)
	}
	return fmt.Sprintf("%s: %s (stdout %q)", ErrMalformedOutput, e.Reason, abbrev(e.Stdout, 80))
}

func (e *MalformedOutputError) Unwrap() error { return ErrMalformedOutput }

func abbrev(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
