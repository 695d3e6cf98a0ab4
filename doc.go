// Package mcpstdio runs a local MCP server as a child process and exchanges
// newline-delimited JSON-RPC messages with it over stdin and stdout.
//
// A transport spawns the server, writes each outbound message as one JSON
// line, decodes the server's stdout into messages regardless of how the
// bytes were chunked, forwards stderr as diagnostics, and reports the
// process going away. Everything a transport observes arrives on a single
// event channel in order, ending with exactly one EventClosed.
//
// # Basic Usage
//
// Use NewTransport directly for full control over the event stream:
//
//	tr := mcpstdio.NewTransport("my-mcp-server", []string{"--stdio"},
//	    mcpstdio.WithEnv(map[string]string{"API_TOKEN": token}),
//	)
//	if err := tr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	if err := tr.Send(ctx, request); err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range tr.Events() {
//	    switch ev.Kind {
//	    case mcpstdio.EventMessage:
//	        fmt.Println(string(ev.Message))
//	    case mcpstdio.EventError:
//	        log.Println("bad frame:", ev.Err)
//	    case mcpstdio.EventClosed:
//	        if ev.Err != nil {
//	            log.Println("server died:", ev.Err)
//	        }
//	    }
//	}
//
// Or WithTransport for automatic lifecycle management:
//
//	err := mcpstdio.WithTransport(ctx, "my-mcp-server", nil, func(t mcpstdio.Transport) error {
//	    return t.Send(ctx, request)
//	})
//
// # MCP Clients
//
// CommandTransport plugs into the official MCP Go SDK:
//
//	client := mcp.NewClient(&mcp.Implementation{Name: "demo", Version: "v1"}, nil)
//	session, err := client.Connect(ctx, &mcpstdio.CommandTransport{Command: "my-mcp-server"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
//
// # Shutdown
//
// Close kills the child immediately and returns without waiting. Shutdown
// closes stdin first, gives the server a grace period to exit on its own,
// and waits until the process has been reaped.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	tr := mcpstdio.NewTransport("my-mcp-server", nil, mcpstdio.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	if err := tr.Start(ctx); err != nil {
//	    if nf, ok := errors.AsType[*mcpstdio.CommandNotFoundError](err); ok {
//	        log.Fatalf("server not installed, searched: %v", nf.SearchedPaths)
//	    }
//	    log.Fatal(err)
//	}
//
//	for ev := range tr.Events() {
//	    if exitErr, ok := errors.AsType[*mcpstdio.ProcessExitError](ev.Err); ok {
//	        log.Fatalf("server exited with code %d: %s", exitErr.ExitCode, exitErr.Stderr)
//	    }
//	}
package mcpstdio
