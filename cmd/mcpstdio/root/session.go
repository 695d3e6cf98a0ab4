package root

import (
	"context"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

const (
	clientName    = "mcpstdio"
	clientVersion = "v0.1.0"
)

// connect launches the server and completes the MCP handshake.
func connect(ctx context.Context, spec *serverSpec, stderr io.Writer) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)

	logger.Debug("Connecting to server", "command", spec.Command, "args", spec.Args)

	session, err := client.Connect(ctx, &mcpstdio.CommandTransport{
		Command: spec.Command,
		Args:    spec.Args,
		Options: transportOptions(spec, stderr),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", spec.Command, err)
	}

	return session, nil
}

// listAllTools follows pagination until every tool has been returned.
func listAllTools(ctx context.Context, session *mcp.ClientSession) ([]*mcp.Tool, error) {
	var tools []*mcp.Tool

	params := &mcp.ListToolsParams{}

	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}

		tools = append(tools, res.Tools...)

		if res.NextCursor == "" {
			return tools, nil
		}

		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// closeSession ends the session and logs rather than returns a failure.
func closeSession(session *mcp.ClientSession) {
	if err := session.Close(); err != nil {
		logger.Debug("Failed to close session", "error", err)
	}
}
