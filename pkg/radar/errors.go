package radar

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates the driver has no open port.
	ErrNotConnected = errors.New("not connected")
	// ErrConfigMode indicates the operation is refused while config
	// mode is active.
	ErrConfigMode = errors.New("config mode active")
	// ErrConfigModeRequired indicates a config command was issued
	// outside config mode. The transport is never touched.
	ErrConfigModeRequired = errors.New("config mode required")
	// ErrIngestRunning indicates the operation is refused while the
	// ingest loop owns the link.
	ErrIngestRunning = errors.New("ingest loop running")
)

// CommandError indicates a command exchange that failed or was never
// acknowledged within its deadline.
type CommandError struct {
	Op string
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s: no ack", e.Op)
}

// RangeError reports an out-of-range argument rejected locally, before
// any transport I/O.
type RangeError struct {
	Param string
	Value int
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range: %d", e.Param, e.Value)
}
