// Command mcpstdio talks to a local MCP server over stdio.
package main

import "github.com/wagiedev/mcp-stdio-go/cmd/mcpstdio/root"

func main() {
	root.Execute()
}
