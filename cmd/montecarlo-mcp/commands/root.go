package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"montecarlo-mcp/internal/config"
	"montecarlo-mcp/internal/configstore"
	"montecarlo-mcp/internal/logging"
	"montecarlo-mcp/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	seed    int64
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "montecarlo-mcp",
	Short: "Monte Carlo simulation MCP server",
	Long: `An MCP server that runs Monte Carlo simulations over arithmetic formulas of random
variables, reports summary statistics and target probabilities, attributes variance to
each input and keeps named configurations for later runs.

Without a subcommand the server speaks MCP over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("store", cfg.Store.Backend).
			Msg("montecarlo-mcp starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := configstore.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		log.Info().Str("version", Version).Msg("MCP Server starting Stdio loop")
		return mcp.NewServer(cfg, store, Version).Serve(cmd.Context())
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed; overrides SIMULATION_SEED (0 seeds from the clock)")
}
