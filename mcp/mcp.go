package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// Runner runs speaker commands. *client.Client implements it.
type Runner interface {
	Run(ctx context.Context, target, command string) (json.RawMessage, error)
	SetVolume(ctx context.Context, target string, gain float64) error
	Commands() []string
}

// MCPServer exposes speaker commands as MCP tools over stdio.
type MCPServer struct {
	Server *server.MCPServer
	runner Runner
	target string
}

func NewMCPServer(runner Runner, target, version string) *MCPServer {
	s := &MCPServer{
		Server: server.NewMCPServer("dutchctl", version),
		runner: runner,
		target: target,
	}
	s.registerTools()
	return s
}

func (s *MCPServer) Run() error {
	slog.Info("Started stdio MCP server", "target", s.target)
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return server.ServeStdio(s.Server)
}
