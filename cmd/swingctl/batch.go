package main

import (
	"context"

	"github.com/spf13/cobra"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/types"
)

func batchCmd(g *globalFlags) *cobra.Command {
	var req types.BatchRequest
	cmd := &cobra.Command{
		Use:   "batch [game_id...]",
		Short: "Generate many games, by id or by league and date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.GameIDs = args
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				report, err := svc.RunBatch(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&req.League, "league", "", "league to select games from")
	cmd.Flags().StringVar(&req.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.To, "to", "", "last day, YYYY-MM-DD (defaults to --from)")
	cmd.Flags().BoolVar(&req.ForceRegenerate, "force", false, "regenerate games that already have a version")
	return cmd
}
