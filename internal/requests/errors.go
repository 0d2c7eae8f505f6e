package requests

import "errors"

var (
	// ErrNotFound is returned when a record does not exist in the store.
	ErrNotFound = errors.New("request not found")
	// ErrConflict is returned when inserting a record whose id already
	// exists.
	ErrConflict = errors.New("request id already exists")
)
