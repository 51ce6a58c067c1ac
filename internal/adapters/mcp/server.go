// Package mcp exposes the read side of the service as Model Context
// Protocol tools: latest_trace, list_versions, compare_versions and
// quality_check.
package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okian/swing/internal/domain/diff"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/pkg/logger"
)

const serverName = "swing"

// Dependencies is the read surface the tools call. *service.Service satisfies it.
type Dependencies interface {
	LatestTrace(ctx context.Context, gameID string) (types.TraceBundle, error)
	ListVersions(ctx context.Context, gameID string) (types.VersionHistory, error)
	CompareVersions(ctx context.Context, gameID string, a, b int) (*diff.Result, error)
	RunQualityCheck(ctx context.Context, gameID string, version int) (types.QualityReport, error)
}

// NewServer builds an MCP server with every tool registered.
func NewServer(deps Dependencies, version string) *sdkmcp.Server {
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: serverName, Version: version}, nil)
	log := logger.Get().Named("mcp")

	sdkmcp.AddTool(server, LatestTraceTool(), LatestTraceHandler(deps, log))
	sdkmcp.AddTool(server, ListVersionsTool(), ListVersionsHandler(deps, log))
	sdkmcp.AddTool(server, CompareVersionsTool(), CompareVersionsHandler(deps, log))
	sdkmcp.AddTool(server, QualityCheckTool(), QualityCheckHandler(deps, log))
	return server
}

// Serve runs the server on transport until ctx is done or the client leaves.
func Serve(ctx context.Context, deps Dependencies, version string, transport sdkmcp.Transport) error {
	if transport == nil {
		return fmt.Errorf("mcp: nil transport")
	}
	logger.Get().Named("mcp").Info(ctx, "mcp server starting", logger.String("version", version))
	if err := NewServer(deps, version).Run(ctx, transport); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}

// ServeStdio serves over stdin and stdout.
func ServeStdio(ctx context.Context, deps Dependencies, version string) error {
	return Serve(ctx, deps, version, &sdkmcp.StdioTransport{})
}
