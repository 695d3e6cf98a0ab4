package mcpstdio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectionCloseSlack bounds Close beyond the configured grace period.
const connectionCloseSlack = 5 * time.Second

// CommandTransport is an mcp.Transport that runs an MCP server as a child
// process and speaks newline-delimited JSON-RPC over its stdio.
//
// Example:
//
//	client := mcp.NewClient(&mcp.Implementation{Name: "demo", Version: "v1"}, nil)
//	session, err := client.Connect(ctx, &mcpstdio.CommandTransport{
//	    Command: "npx",
//	    Args:    []string{"-y", "@modelcontextprotocol/server-everything"},
//	}, nil)
type CommandTransport struct {
	Command string
	Args    []string
	Options []Option
}

// Compile-time verification that CommandTransport implements mcp.Transport.
var _ mcp.Transport = (*CommandTransport)(nil)

// Connect starts the child process and returns a connection to it.
func (c *CommandTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	options := applyOptions(c.Options)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	tr := NewTransport(c.Command, c.Args, c.Options...)
	if err := tr.Start(ctx); err != nil {
		return nil, err
	}

	return &commandConnection{
		transport:    tr,
		log:          log.With("component", "mcp_connection", "transport_id", tr.ID()),
		closeTimeout: options.EffectiveGracePeriod() + connectionCloseSlack,
	}, nil
}

// commandConnection adapts a Transport to mcp.Connection.
type commandConnection struct {
	transport    Transport
	log          *slog.Logger
	closeTimeout time.Duration
}

// Compile-time verification that commandConnection implements mcp.Connection.
var _ mcp.Connection = (*commandConnection)(nil)

// Read returns the next JSON-RPC message from the child.
//
// Lines that are not valid JSON-RPC are logged and skipped. Read returns
// io.EOF once the connection was closed, or the ProcessExitError when the
// child went away on its own.
func (c *commandConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case ev, ok := <-c.transport.Events():
			if !ok {
				return nil, io.EOF
			}

			switch ev.Kind {
			case EventMessage:
				msg, err := jsonrpc.DecodeMessage(ev.Message)
				if err != nil {
					c.log.Warn("skipping non JSON-RPC message", "error", err)

					continue
				}

				return msg, nil

			case EventError:
				c.log.Warn("skipping unreadable frame", "error", ev.Err)

			case EventClosed:
				if ev.Err != nil {
					return nil, ev.Err
				}

				return nil, io.EOF
			}
		}
	}
}

// Write sends a JSON-RPC message to the child.
func (c *commandConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode jsonrpc message: %w", err)
	}

	return c.transport.Send(ctx, json.RawMessage(data))
}

// Close shuts the child down gracefully, killing it if it does not exit
// within the grace period.
func (c *commandConnection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.closeTimeout)
	defer cancel()

	return c.transport.Shutdown(ctx)
}

// SessionID returns the transport ID.
func (c *commandConnection) SessionID() string {
	return c.transport.ID()
}
