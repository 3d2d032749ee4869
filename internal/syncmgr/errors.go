package syncmgr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDefault is returned by GetDefault when the kind has no default
	// selector or no record is selected.
	ErrNoDefault = errors.New("no default entity")
	// ErrNotRunning is returned by operations that need a started manager.
	ErrNotRunning = errors.New("sync manager is not running")
	// ErrInvalidConfig is returned by New for unusable configuration.
	ErrInvalidConfig = errors.New("invalid sync manager config")
)

// StoreError is a persistence failure surfaced to the caller.
type StoreError struct {
	Err  error
	Op   string
	Kind string
	ID   string
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s store %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s store %s %q: %v", e.Kind, e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TransportStartError means the sync transport could not be started.
// It is returned from Start and is not retried.
type TransportStartError struct {
	Err  error
	Kind string
	Port int
}

func (e *TransportStartError) Error() string {
	return fmt.Sprintf("failed to start %s transport on port %d: %v", e.Kind, e.Port, e.Err)
}

func (e *TransportStartError) Unwrap() error { return e.Err }

// ReconciliationError describes an inbound change that could not be applied.
// It is logged by the consumer loop and never returned to callers.
type ReconciliationError struct {
	Err  error
	Kind string
	ID   string
	Op   string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile %s %s %q: %v", e.Kind, e.Op, e.ID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
