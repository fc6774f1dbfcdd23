package domain

import (
    "errors"
    "fmt"
)

// Sentinel errors matched with errors.Is across package boundaries.
var (
    ErrTaskNotFound   = errors.New("task not found")
    ErrNotInitialized = errors.New("service not initialized")
    ErrCycleRunning   = errors.New("poll cycle already running")
)

// TransportError wraps a source fetch failure (network, auth, API payload).
type TransportError struct {
    Op  string
    Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage write failure, including constraint violations.
type PersistenceError struct {
    Op  string
    Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
