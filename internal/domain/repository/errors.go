package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Services branch on it to tell a missing record apart from a failing
// store.
var ErrNotFound = errors.New("not found")
