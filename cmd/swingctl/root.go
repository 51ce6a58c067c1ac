package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/pkg/logger"
)

// globalFlags override the loaded configuration.
type globalFlags struct {
	store     string
	sourceDir string
	sports    string
	logLevel  string
}

func rootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:          "swingctl",
		Short:        "Generate and inspect versioned game moments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initLogger(cmd.ErrOrStderr(), g.logLevel)
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.store, "store", "", "version store DSN (overrides store_dsn)")
	pf.StringVar(&g.sourceDir, "source-dir", "", "game fixture directory (overrides source_dir)")
	pf.StringVar(&g.sports, "sports", "", "sports profile YAML (overrides sports_file)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(generateCmd(&g))
	root.AddCommand(batchCmd(&g))
	root.AddCommand(versionsCmd(&g))
	root.AddCommand(traceCmd(&g))
	root.AddCommand(compareCmd(&g))
	root.AddCommand(qualityCmd(&g))
	root.AddCommand(simulateCmd(&g))
	root.AddCommand(mcpCmd(&g))
	root.AddCommand(versionCmd())
	return root
}

func initLogger(w io.Writer, level string) error {
	if err := logger.InitWithOptions(logger.WithWriter(w)); err != nil {
		return err
	}
	return logger.SetLevelString(level)
}

// loadConfig loads SWING_* configuration and applies the global flags.
func loadConfig(ctx context.Context, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.store != "" {
		cfg.StoreDSN = g.store
	}
	if g.sourceDir != "" {
		cfg.SourceDir = g.sourceDir
	}
	if g.sports != "" {
		cfg.SportsFile = g.sports
	}
	return cfg, cfg.Validate()
}

// openService builds the service; the caller must call the returned close.
func openService(ctx context.Context, g *globalFlags) (*service.Service, func() error, error) {
	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return nil, nil, err
	}
	return service.FromConfig(ctx, cfg)
}

// withService runs fn against a freshly opened service.
func withService(cmd *cobra.Command, g *globalFlags, fn func(context.Context, *service.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeStore, err := openService(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
