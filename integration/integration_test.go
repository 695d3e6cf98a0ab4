//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	mcpstdio "github.com/wagiedev/mcp-stdio-go"
)

// calculatorBin is the example calculator server, built once for the run.
var calculatorBin string

func TestMain(m *testing.M) {
	if _, err := exec.LookPath("go"); err != nil {
		fmt.Fprintln(os.Stderr, "go toolchain not on PATH, skipping integration tests")
		os.Exit(0)
	}

	dir, err := os.MkdirTemp("", "mcpstdio-integration")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	calculatorBin = filepath.Join(dir, "mcp_calculator")

	build := exec.Command("go", "build", "-o", calculatorBin, "./examples/mcp_calculator")
	build.Dir = ".."
	build.Stderr = os.Stderr

	if err := build.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "build calculator server:", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

// connectCalculator starts the calculator server and completes the handshake.
func connectCalculator(t *testing.T, ctx context.Context, opts ...mcpstdio.Option) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "v0.0.1"}, nil)

	session, err := client.Connect(ctx, &mcpstdio.CommandTransport{
		Command: calculatorBin,
		Options: opts,
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
	})

	return session
}

// textOf joins the text content of a tool result.
func textOf(res *mcp.CallToolResult) string {
	var parts []string

	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}

	return strings.Join(parts, "\n")
}
