//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"integration","version":"v0.0.1"}}}`

// TestTransport_ShutdownIsGraceful tests that a server which exits on stdin
// EOF is reaped without being killed.
func TestTransport_ShutdownIsGraceful(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tr := mcpstdio.NewTransport(calculatorBin, nil, mcpstdio.WithGracePeriod(10*time.Second))
	require.NoError(t, tr.Start(ctx))

	require.NoError(t, tr.Send(ctx, json.RawMessage(initializeRequest)))

	ev := <-tr.Events()
	require.Equal(t, mcpstdio.EventMessage, ev.Kind)
	require.Contains(t, string(ev.Message), `"serverInfo"`)

	start := time.Now()
	require.NoError(t, tr.Shutdown(ctx))
	require.Less(t, time.Since(start), 10*time.Second, "server should exit before the grace period")

	select {
	case <-tr.Done():
	default:
		t.Fatal("Done should be closed after Shutdown")
	}
}

// TestTransport_CloseMidSession tests that Close returns promptly and the
// event stream still terminates with exactly one EventClosed.
func TestTransport_CloseMidSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tr := mcpstdio.NewTransport(calculatorBin, nil)
	require.NoError(t, tr.Start(ctx))
	require.NoError(t, tr.Send(ctx, json.RawMessage(initializeRequest)))

	closeStart := time.Now()
	require.NoError(t, tr.Close())
	require.Less(t, time.Since(closeStart), time.Second)

	closed := 0

	for ev := range tr.Events() {
		if ev.Kind == mcpstdio.EventClosed {
			closed++

			require.NoError(t, ev.Err)
		}
	}

	require.Equal(t, 1, closed)

	err := tr.Send(ctx, json.RawMessage(initializeRequest))
	require.True(t, errors.Is(err, mcpstdio.ErrNotRunning))
}

// TestClient_RapidCloseReopen tests that sessions can be opened and closed
// back to back without leaking processes or hanging.
func TestClient_RapidCloseReopen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "v0.0.1"}, nil)

	for i := range 3 {
		session, err := client.Connect(ctx, &mcpstdio.CommandTransport{Command: calculatorBin}, nil)
		require.NoError(t, err, "connect %d", i)

		_, err = session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err, "list tools %d", i)

		require.NoError(t, session.Close(), "close %d", i)
	}
}
