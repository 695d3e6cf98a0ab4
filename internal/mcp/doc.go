// Package mcp holds the Model Context Protocol pieces that sit above the
// stdio transport: server definitions loaded from an mcpServers file, and
// validation of tool arguments against a tool's input schema.
package mcp
