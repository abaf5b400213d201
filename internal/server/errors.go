package server

import "errors"

var (
	// ErrShutdownTimeout is returned when client goroutines outlive the shutdown budget.
	ErrShutdownTimeout = errors.New("hub shutdown timed out")
	// ErrHubStopped is returned when a connection arrives after shutdown began.
	ErrHubStopped = errors.New("hub stopped")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
