package errors

import (
	"errors"
	"fmt"
)

// TransportError is the base interface for all transport errors.
type TransportError interface {
	error
	IsTransportError() bool
}

// Compile-time verification that all error types implement TransportError.
var (
	_ TransportError = (*SpawnError)(nil)
	_ TransportError = (*CommandNotFoundError)(nil)
	_ TransportError = (*WriteError)(nil)
	_ TransportError = (*DecodeError)(nil)
	_ TransportError = (*StreamError)(nil)
	_ TransportError = (*ProcessExitError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotRunning indicates an operation needed a live child process.
	ErrNotRunning = errors.New("transport not running")

	// ErrAlreadyStarted indicates Start was called on a running transport.
	ErrAlreadyStarted = errors.New("transport already started")

	// ErrTransportClosed indicates the transport has been closed and cannot be reused.
	ErrTransportClosed = errors.New("transport closed: transports are single-use, create a new one")

	// ErrFrameTooLarge indicates an inbound record exceeded the configured size limit.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// maxLineInError caps how much of a malformed line is kept in a DecodeError.
const maxLineInError = 256

// SpawnError indicates the child process could not be created.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsTransportError implements TransportError.
func (e *SpawnError) IsTransportError() bool { return true }

// CommandNotFoundError indicates the executable could not be resolved.
type CommandNotFoundError struct {
	Command       string
	SearchedPaths []string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found in: %v", e.Command, e.SearchedPaths)
}

// IsTransportError implements TransportError.
func (e *CommandNotFoundError) IsTransportError() bool { return true }

// WriteError indicates a write to the child's stdin failed.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to stdin: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsTransportError implements TransportError.
func (e *WriteError) IsTransportError() bool { return true }

// DecodeError indicates a single stdout line was not valid JSON.
// Line holds the offending record, truncated for very long input.
type DecodeError struct {
	Line string
	Err  error
}

// NewDecodeError builds a DecodeError, truncating the raw line.
func NewDecodeError(line []byte, err error) *DecodeError {
	if len(line) > maxLineInError {
		line = append(line[:maxLineInError:maxLineInError], "..."...)
	}

	return &DecodeError{Line: string(line), Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTransportError implements TransportError.
func (e *DecodeError) IsTransportError() bool { return true }

// StreamError indicates an OS-level failure reading one of the child's streams.
type StreamError struct {
	Stream string
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s stream: %v", e.Stream, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsTransportError implements TransportError.
func (e *StreamError) IsTransportError() bool { return true }

// ProcessExitError indicates the child process went away without Close being called.
type ProcessExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process exited unexpectedly (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process exited unexpectedly (exit %d)", e.ExitCode)
}

func (e *ProcessExitError) Unwrap() error {
	return e.Err
}

// IsTransportError implements TransportError.
func (e *ProcessExitError) IsTransportError() bool { return true }
