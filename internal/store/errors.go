package store

import "errors"

// ErrNotFound is returned when no record exists for the given identifier.
var ErrNotFound = errors.New("not found")
