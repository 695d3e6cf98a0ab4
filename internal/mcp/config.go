package mcp

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
)

// ServerType represents the type of MCP server.
type ServerType string

const (
	// ServerTypeStdio uses stdio for communication.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE uses Server-Sent Events.
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP uses HTTP for communication.
	ServerTypeHTTP ServerType = "http"
)

// StdioServerConfig configures a stdio-based MCP server.
type StdioServerConfig struct {
	Type    *ServerType       `json:"type,omitempty"` // Optional for backwards compatibility
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
}

// GetType returns the declared type, defaulting to stdio.
func (m *StdioServerConfig) GetType() ServerType {
	if m.Type != nil {
		return *m.Type
	}

	return ServerTypeStdio
}

// ServersFile is the on-disk format shared with other MCP clients.
type ServersFile struct {
	MCPServers map[string]*StdioServerConfig `json:"mcpServers"`
}

// LoadServersFile reads and validates an mcpServers JSON file.
func LoadServersFile(path string) (*ServersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read servers file: %w", err)
	}

	return ParseServersFile(data)
}

// ParseServersFile decodes an mcpServers document.
func ParseServersFile(data []byte) (*ServersFile, error) {
	var file ServersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse servers file: %w", err)
	}

	if file.MCPServers == nil {
		file.MCPServers = make(map[string]*StdioServerConfig)
	}

	return &file, nil
}

// Names returns the configured server names in sorted order.
func (f *ServersFile) Names() []string {
	return slices.Sorted(maps.Keys(f.MCPServers))
}

// Server returns the named stdio server.
// Entries of another transport type, or without a command, are rejected.
func (f *ServersFile) Server(name string) (*StdioServerConfig, error) {
	cfg, ok := f.MCPServers[name]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("server %q not found (available: %v)", name, f.Names())
	}

	if t := cfg.GetType(); t != ServerTypeStdio {
		return nil, fmt.Errorf("server %q has type %q, only %q is supported", name, t, ServerTypeStdio)
	}

	if cfg.Command == "" {
		return nil, fmt.Errorf("server %q has no command", name)
	}

	return cfg, nil
}
