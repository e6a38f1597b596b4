package backend

import "errors"

// Domain-specific errors for backend operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when the backend connection is down.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrEntityNotFound is returned when an entity ID is unknown.
	ErrEntityNotFound = errors.New("backend: entity not found")

	// ErrCallFailed is returned when a service call is rejected.
	ErrCallFailed = errors.New("backend: service call failed")
)
