package config

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with a unique key.
	ErrConflict = errors.New("already exists")
)
