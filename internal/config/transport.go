// Package config provides configuration types for the stdio transport.
package config

import (
	"context"
	"encoding/json"
)

// State is the lifecycle state of a transport.
type State int32

const (
	// StateUnstarted is the state before a successful Start.
	StateUnstarted State = iota
	// StateRunning means the child process is alive and accepting input.
	StateRunning
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	// EventMessage carries one decoded inbound frame in Message.
	EventMessage EventKind = iota + 1
	// EventError carries a non-fatal stream or decode fault in Err.
	EventError
	// EventClosed is the final event. Err is nil when the close was
	// requested and describes the cause otherwise.
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is a single notification from the transport to its consumer.
type Event struct {
	Kind    EventKind
	Message json.RawMessage
	Err     error
}

// Transport defines the interface for exchanging newline-delimited JSON
// with a child process.
//
// The default implementation is subprocess.Transport.
type Transport interface {
	// Start spawns the child process and begins reading its output.
	Start(ctx context.Context) error

	// Send writes one message to the child's stdin as a single JSON line.
	// This method must be safe for concurrent use.
	Send(ctx context.Context, message any) error

	// Events returns the channel of inbound events. It yields exactly one
	// EventClosed as its last value and is then closed.
	Events() <-chan Event

	// Close terminates the child process without waiting for it to exit.
	// It's safe to call Close multiple times.
	Close() error

	// Shutdown closes stdin, waits for the child to exit, and kills it
	// after the grace period. It returns once the child is reaped or ctx ends.
	Shutdown(ctx context.Context) error

	// Done is closed once the child has been reaped and EventClosed queued.
	Done() <-chan struct{}

	// State reports the current lifecycle state.
	State() State

	// ID returns the unique identifier of this connection.
	ID() string
}
