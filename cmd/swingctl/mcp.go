package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/swing/internal/adapters/mcp"
	service "github.com/okian/swing/internal/app"
)

func mcpCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the read tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				return mcp.ServeStdio(ctx, svc, version)
			})
		},
	}
}
