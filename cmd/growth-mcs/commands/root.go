package commands

import (
	"context"

	"growth-mcs/internal/config"
	"growth-mcs/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	flags runFlags
)

var rootCmd = &cobra.Command{
	Use:   "growth-mcs",
	Short: "Monte-Carlo simulation of multi-year growth forecasts",
	Long: `Reads per-entity growth forecasts, simulates many randomized growth paths around them and
writes a report with summary statistics, percentiles, Value at Risk, threshold probabilities,
a text histogram and a year-by-year breakdown for every entity.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("growth-mcs starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := flags.apply(cmd, cfg); err != nil {
			return err
		}
		return runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging and progress output")
	flags.register(rootCmd)
	rootCmd.AddCommand(serveCmd)
}
