package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	authsvc "github.com/casacaminho/shelter-api/internal/service/auth"
	"github.com/casacaminho/shelter-api/pkg/auth"
	"github.com/casacaminho/shelter-api/pkg/security"
)

func newRehashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rehash-passwords",
		Short: "Replace legacy plaintext credentials with bcrypt hashes",
		Long: "Users whose stored credential is not a bcrypt hash cannot log in. " +
			"This command hashes those credentials in place so the same password works again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, _, closeStore, err := openStore(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := authsvc.NewService(
				store.Users(),
				auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
				security.NewBcryptHasher(bcrypt.DefaultCost),
			)
			n, err := svc.RehashLegacy(cmd.Context())
			if err != nil {
				log.Error().Err(err).Int("rehashed", n).Msg("Rehash stopped")
				return err
			}
			log.Info().Int("rehashed", n).Msg("Legacy credentials rehashed")
			return nil
		},
	}
}
