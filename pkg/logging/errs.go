package logging

import "errors"

// ErrBadLevel indicates an unknown log level name.
var ErrBadLevel = errors.New("logging: unknown level")
