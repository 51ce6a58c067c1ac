package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okian/swing/pkg/logger"
)

// GameInput selects a game.
type GameInput struct {
	GameID string `json:"game_id" jsonschema:"game identifier"`
}

// CompareInput selects two versions of a game.
type CompareInput struct {
	GameID   string `json:"game_id" jsonschema:"game identifier"`
	VersionA int    `json:"version_a" jsonschema:"base version number"`
	VersionB int    `json:"version_b" jsonschema:"version number to compare against the base"`
}

// QualityInput selects a version to check; version 0 or absent means active.
type QualityInput struct {
	GameID  string `json:"game_id" jsonschema:"game identifier"`
	Version int    `json:"version,omitempty" jsonschema:"version number (defaults to the active version)"`
}

// LatestTraceTool defines the latest_trace tool.
func LatestTraceTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "latest_trace",
		Description: "Returns the active version of a game with its moments, per-moment traces and run summary.",
	}
}

// LatestTraceHandler serves latest_trace.
func LatestTraceHandler(deps Dependencies, log logger.Logger) sdkmcp.ToolHandlerFor[GameInput, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GameInput) (*sdkmcp.CallToolResult, any, error) {
		if err := requireGame(in.GameID); err != nil {
			return nil, nil, err
		}
		tb, err := deps.LatestTrace(ctx, in.GameID)
		if err != nil {
			log.Debug(ctx, "latest_trace failed", logger.String("game_id", in.GameID), logger.Error(err))
			return nil, nil, err
		}
		return jsonResult(tb)
	}
}

// ListVersionsTool defines the list_versions tool.
func ListVersionsTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "list_versions",
		Description: "Lists every stored version of a game in ascending order and names the active one.",
	}
}

// ListVersionsHandler serves list_versions.
func ListVersionsHandler(deps Dependencies, log logger.Logger) sdkmcp.ToolHandlerFor[GameInput, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GameInput) (*sdkmcp.CallToolResult, any, error) {
		if err := requireGame(in.GameID); err != nil {
			return nil, nil, err
		}
		h, err := deps.ListVersions(ctx, in.GameID)
		if err != nil {
			log.Debug(ctx, "list_versions failed", logger.String("game_id", in.GameID), logger.Error(err))
			return nil, nil, err
		}
		return jsonResult(h)
	}
}

// CompareVersionsTool defines the compare_versions tool.
func CompareVersionsTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "compare_versions",
		Description: "Aligns the moments of two versions of a game and reports added, removed and changed moments.",
	}
}

// CompareVersionsHandler serves compare_versions.
func CompareVersionsHandler(deps Dependencies, log logger.Logger) sdkmcp.ToolHandlerFor[CompareInput, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CompareInput) (*sdkmcp.CallToolResult, any, error) {
		if err := requireGame(in.GameID); err != nil {
			return nil, nil, err
		}
		if in.VersionA < 1 || in.VersionB < 1 {
			return nil, nil, fmt.Errorf("%w: version_a and version_b must be positive", ErrMissingArgument)
		}
		res, err := deps.CompareVersions(ctx, in.GameID, in.VersionA, in.VersionB)
		if err != nil {
			log.Debug(ctx, "compare_versions failed",
				logger.String("game_id", in.GameID),
				logger.Int("a", in.VersionA),
				logger.Int("b", in.VersionB),
				logger.Error(err))
			return nil, nil, err
		}
		return jsonResult(res)
	}
}

// QualityCheckTool defines the quality_check tool.
func QualityCheckTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "quality_check",
		Description: "Runs the advisory quality checks on a version of a game and returns the flags.",
	}
}

// QualityCheckHandler serves quality_check.
func QualityCheckHandler(deps Dependencies, log logger.Logger) sdkmcp.ToolHandlerFor[QualityInput, any] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in QualityInput) (*sdkmcp.CallToolResult, any, error) {
		if err := requireGame(in.GameID); err != nil {
			return nil, nil, err
		}
		if in.Version < 0 {
			return nil, nil, fmt.Errorf("%w: version must not be negative", ErrMissingArgument)
		}
		report, err := deps.RunQualityCheck(ctx, in.GameID, in.Version)
		if err != nil {
			log.Debug(ctx, "quality_check failed", logger.String("game_id", in.GameID), logger.Error(err))
			return nil, nil, err
		}
		return jsonResult(report)
	}
}

func requireGame(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: game_id", ErrMissingArgument)
	}
	return nil
}

// jsonResult renders v as a single JSON text block.
func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(raw)}},
	}, nil, nil
}
