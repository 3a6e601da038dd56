package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/casacaminho/shelter-api/internal/config"
	"github.com/casacaminho/shelter-api/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "shelter-api",
		Short:         "Casa do Caminho admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				return os.Setenv("CONFIG_FILE", configFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default: ./config.yml when present)")

	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd(), newRehashCmd())
	// Running the binary without a subcommand serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return root
}

// loadConfig loads configuration and sets up the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, err
	}
	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}
	return cfg, nil
}
