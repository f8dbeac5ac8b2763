package contract

import "errors"

// ErrNotFound is returned when a requested athlete does not exist.
var ErrNotFound = errors.New("not found")
