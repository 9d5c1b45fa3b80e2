package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrChunkGap indicates a configuration chunk past the received ones.
	ErrChunkGap = errors.New("configuration chunk gap")
	// ErrChunkOverflow indicates a chunk past the parameter count.
	ErrChunkOverflow = errors.New("configuration chunk overflow")
	// ErrAlreadyConfigured indicates a chunk for a configured node.
	ErrAlreadyConfigured = errors.New("already configured")
	// ErrUnknownTask indicates a command for an id never initialized.
	ErrUnknownTask = errors.New("unknown task id")
	// ErrNotConfigured indicates a held override for a node not configured.
	ErrNotConfigured = errors.New("not configured for override")
	// ErrLatchMismatch indicates override values not matching the latch.
	ErrLatchMismatch = errors.New("override length mismatch")
	// ErrInvalidLatch indicates an unknown latch mode.
	ErrInvalidLatch = errors.New("invalid latch mode")
)

// NodeError wraps an error with the task id.
type NodeError struct {
	TaskID byte
	Err    error
}

// Error implements error.
func (e *NodeError) Error() string {
	return fmt.Sprintf("task %d: %v", e.TaskID, e.Err)
}

// Unwrap returns the wrapped error.
func (e *NodeError) Unwrap() error {
	return e.Err
}
