package sweep

import "errors"

var (
	// ErrEmptyGrid indicates a grid without parameters.
	ErrEmptyGrid = errors.New("sweep: empty grid")

	// ErrEmptyParam indicates a parameter with no candidate values.
	ErrEmptyParam = errors.New("sweep: parameter has no values")

	// ErrDuplicateParam indicates the same parameter name declared twice.
	ErrDuplicateParam = errors.New("sweep: duplicate parameter")

	// ErrDuplicateValue indicates a value listed twice for one parameter.
	ErrDuplicateValue = errors.New("sweep: duplicate value")

	// ErrUnnamedParam indicates a parameter with an empty name.
	ErrUnnamedParam = errors.New("sweep: unnamed parameter")

	// ErrBadRange indicates a range with a zero step.
	ErrBadRange = errors.New("sweep: range step must be non-zero")

	// ErrNotNumeric indicates a value that has no numeric view.
	ErrNotNumeric = errors.New("sweep: value is not numeric")
)
