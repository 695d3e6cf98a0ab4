package mcpstdio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// helperEnv selects the behavior of the test binary when it runs as a child.
const helperEnv = "MCPSTDIO_TEST_HELPER"

func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(runHelper(mode))
	}

	os.Exit(m.Run())
}

type greetArgs struct {
	Name string `json:"name" jsonschema:"the name of the person to greet"`
}

func runHelper(mode string) int {
	switch mode {
	case "echo":
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fmt.Fprintln(os.Stdout, scanner.Text())
		}

		return 0

	case "noisy-server":
		fmt.Fprintln(os.Stdout, "starting up")
		fmt.Fprintln(os.Stdout, `{"hello":"world"}`)

		return runGreetServer()

	case "server":
		return runGreetServer()

	case "crash":
		fmt.Fprintln(os.Stderr, "panic: out of cheese")

		return 4

	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q\n", mode)

		return 2
	}
}

func runGreetServer() int {
	server := mcp.NewServer(&mcp.Implementation{Name: "greeter", Version: "v0.0.1"}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "greet", Description: "Say hi to someone"},
		func(_ context.Context, _ *mcp.CallToolRequest, args greetArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "Hi " + args.Name}},
			}, nil, nil
		},
	)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	return 0
}

// helperOptions returns the options that make the test binary act as mode.
func helperOptions(mode string, extra ...Option) []Option {
	return append([]Option{WithEnv(map[string]string{helperEnv: mode})}, extra...)
}
