package main

import (
	"context"

	"github.com/spf13/cobra"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/model"
)

func generateCmd(g *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate <game_id>",
		Short: "Generate moments for a game and commit a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				var (
					v   model.PayloadVersion
					err error
				)
				if force {
					v, err = svc.Regenerate(ctx, args[0])
				} else {
					v, err = svc.Generate(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "create a new version even when one exists")
	return cmd
}
