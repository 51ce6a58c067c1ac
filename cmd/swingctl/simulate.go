package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/swing/internal/adapters/source"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/simulate"
)

func simulateCmd(g *globalFlags) *cobra.Command {
	var (
		sport string
		count int
		sim   simulate.Config
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write synthetic game fixtures into the source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), g)
			if err != nil {
				return err
			}
			profiles, err := config.LoadSports(cfg.SportsFile)
			if err != nil {
				return err
			}
			profile, err := profiles.Lookup(sport)
			if err != nil {
				return err
			}

			files := source.NewFile(cfg.SourceDir)
			for _, game := range simulate.Games(profile, sim, count) {
				path, err := files.SaveGame(game)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d events\n", game.ID, path, len(game.Events))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sport, "sport", "basketball", "sport profile to simulate")
	f.IntVar(&count, "count", 1, "number of games")
	f.StringVar(&sim.GameID, "id", "", "game id prefix (defaults to sim-<sport>-<seed>)")
	f.StringVar(&sim.League, "league", "", "league recorded on the games")
	f.StringVar(&sim.Date, "date", "", "game date, YYYY-MM-DD")
	f.StringVar(&sim.HomeTeam, "home", "", "home team name")
	f.StringVar(&sim.AwayTeam, "away", "", "away team name")
	f.IntVar(&sim.Plays, "plays", 0, "plays per game (0 uses the default)")
	f.Int64Var(&sim.Seed, "seed", 1, "first random seed; later games use seed+1, seed+2, ...")
	return cmd
}
