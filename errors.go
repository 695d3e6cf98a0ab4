package mcpstdio

import "github.com/wagiedev/mcp-stdio-go/internal/errors"

// Re-export error types from internal package

// SpawnError indicates the child process could not be created.
type SpawnError = errors.SpawnError

// CommandNotFoundError indicates the executable could not be resolved.
type CommandNotFoundError = errors.CommandNotFoundError

// WriteError indicates a write to the child's stdin failed.
type WriteError = errors.WriteError

// DecodeError indicates a single inbound line was not valid JSON.
type DecodeError = errors.DecodeError

// StreamError indicates an OS-level failure reading one of the child's streams.
type StreamError = errors.StreamError

// ProcessExitError indicates the child process went away without Close being called.
type ProcessExitError = errors.ProcessExitError

// TransportError is the base interface for all transport errors.
type TransportError = errors.TransportError

// Re-export sentinel errors from internal package.
var (
	// ErrNotRunning indicates an operation needed a live child process.
	ErrNotRunning = errors.ErrNotRunning

	// ErrAlreadyStarted indicates Start was called on a running transport.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrTransportClosed indicates the transport has been closed and cannot be reused.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrFrameTooLarge indicates an inbound line exceeded the configured size limit.
	ErrFrameTooLarge = errors.ErrFrameTooLarge
)
