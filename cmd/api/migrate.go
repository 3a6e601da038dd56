package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/casacaminho/shelter-api/internal/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, db, closeStore, err := openStore(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer closeStore()
			if db == nil {
				return errors.New("migrate needs the postgres driver")
			}

			applied, err := postgres.NewMigrator(db, nil).Up(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Migration failed")
				return err
			}
			log.Info().Int("applied", applied).Msg("Migrations up to date")
			return nil
		},
	}
}
