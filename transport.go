package mcpstdio

import (
	"github.com/wagiedev/mcp-stdio-go/internal/config"
	"github.com/wagiedev/mcp-stdio-go/internal/subprocess"
)

// Transport exchanges newline-delimited JSON with a child process.
//
// The default implementation spawns the process with its stdin and stdout
// piped, and reports everything it reads through Events.
type Transport = config.Transport

// State is the lifecycle state of a transport.
type State = config.State

// Lifecycle states.
const (
	StateUnstarted = config.StateUnstarted
	StateRunning   = config.StateRunning
	StateClosed    = config.StateClosed
)

// Event is a single notification from a transport.
type Event = config.Event

// EventKind tags the variant carried by an Event.
type EventKind = config.EventKind

// Event kinds.
const (
	EventMessage = config.EventMessage
	EventError   = config.EventError
	EventClosed  = config.EventClosed
)

// NewTransport creates a transport that will run command with args.
//
// Nothing is spawned until Start is called. A transport is single-use:
// after it closes, create a new one to reconnect.
func NewTransport(command string, args []string, opts ...Option) Transport {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return subprocess.NewTransport(log, command, args, options)
}
