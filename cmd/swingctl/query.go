package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/swing/internal/app"
)

func versionsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "versions <game_id>",
		Short: "List the stored versions of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				h, err := svc.ListVersions(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), h)
				}
				if len(h.Versions) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No versions for %s.\n", args[0])
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tACTIVE\tMOMENTS\tSOURCE\tCREATED\tHASH")
				for _, v := range h.Versions {
					active := ""
					if v.IsActive {
						active = "*"
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%.12s\n",
						v.VersionNumber, active, v.MomentCount, v.GenerationSource,
						v.CreatedAt.Format(time.RFC3339), v.ContentHash)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func traceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <game_id>",
		Short: "Print the active version with its moment traces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				tb, err := svc.LatestTrace(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tb)
			})
		},
	}
}

func compareCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <game_id> <version_a> <version_b>",
		Short: "Diff two versions of a game",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseVersion(args[1])
			if err != nil {
				return err
			}
			b, err := parseVersion(args[2])
			if err != nil {
				return err
			}
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.CompareVersions(ctx, args[0], a, b)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func qualityCmd(g *globalFlags) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "quality <game_id>",
		Short: "Run the quality checks on a version (the active one by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if version < 0 {
				return fmt.Errorf("--version must not be negative")
			}
			return withService(cmd, g, func(ctx context.Context, svc *service.Service) error {
				report, err := svc.RunQualityCheck(ctx, args[0], version)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "version number to check")
	return cmd
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid version %q: must be a positive integer", s)
	}
	return v, nil
}
