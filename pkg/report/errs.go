package report

import "errors"

var (
	// ErrShapeMismatch indicates averaged results that do not form a
	// len(x) by columns matrix.
	ErrShapeMismatch = errors.New("report: shape mismatch")

	// ErrBadFormat indicates a float format that is not a single float verb.
	ErrBadFormat = errors.New("report: bad float format")
)
