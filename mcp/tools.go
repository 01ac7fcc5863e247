package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/dutchctl/client"
)

func (s *MCPServer) registerTools() {
	runCommandTool := mcp.NewTool("run_command",
		mcp.WithDescription("Run one command against the Dutch & Dutch 8C speakers"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command to run"),
			mcp.Enum(s.runner.Commands()...),
		),
	)
	s.Server.AddTool(runCommandTool, s.handleRunCommand)

	setVolumeTool := mcp.NewTool("set_volume",
		mcp.WithDescription("Set the room gain of the speakers in dB (0 is maximum, -30 is quiet)"),
		mcp.WithNumber("gain",
			mcp.Required(),
			mcp.Description("Gain in dB"),
		),
	)
	s.Server.AddTool(setVolumeTool, s.handleSetVolume)

	dumpStateTool := mcp.NewTool("dump_state",
		mcp.WithDescription("Return the full network state tree reported by the room master"),
	)
	s.Server.AddTool(dumpStateTool, s.handleDumpState)
}

// Speaker failures are reported as tool errors so the model can see them.

func (s *MCPServer) handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command is required and must be a string"), nil
	}

	out, err := s.runner.Run(ctx, s.target, command)
	if err != nil {
		slog.Warn("MCP command failed", "command", command, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Command %s failed: %v", command, err)), nil
	}
	if out != nil {
		return mcp.NewToolResultText(indent(out)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Command %s sent to %s", command, s.target)), nil
}

func (s *MCPServer) handleSetVolume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gain, err := request.RequireFloat("gain")
	if err != nil {
		return mcp.NewToolResultError("gain is required and must be a number"), nil
	}
	if err := client.ValidateGain(gain); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.runner.SetVolume(ctx, s.target, gain); err != nil {
		slog.Warn("MCP volume change failed", "gain", gain, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Setting volume failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Gain set to %.1f dB", gain)), nil
}

func (s *MCPServer) handleDumpState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.runner.Run(ctx, s.target, "dump")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Reading state failed: %v", err)), nil
	}
	return mcp.NewToolResultText(indent(out)), nil
}

func indent(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
