package storage

import "errors"

// Common entity store errors
var (
	// ErrEntityNotFound indicates that no entity with the given id exists
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityExists indicates that an insert hit an existing id
	ErrEntityExists = errors.New("entity already exists")

	// ErrVersionConflict indicates that a conditional update saw another stored version
	ErrVersionConflict = errors.New("entity version conflict")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
