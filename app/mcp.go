package app

import (
	"io"

	"github.com/mbocsi/dutchctl/mcp"
	"github.com/spf13/cobra"
)

func (a *App) mcpCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve speaker commands as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("target") {
				a.cfg.Target = target
			}
			srv, err := a.mcpServer()
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "hostname or IPv4 address of a speaker")
	return cmd
}

// mcpServer builds the tool server. stdout carries the protocol, so the
// master address is not printed.
func (a *App) mcpServer() (*mcp.MCPServer, error) {
	if a.cfg.Target == "" {
		return nil, errNoTarget
	}
	c, err := a.newClient(io.Discard)
	if err != nil {
		return nil, err
	}
	return mcp.NewMCPServer(c, a.cfg.Target, version), nil
}
