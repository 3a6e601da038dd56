package main

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/config"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
	"github.com/casacaminho/shelter-api/internal/repository/postgres"
)

// openStore returns the configured store and a function releasing it. db is nil
// for the memory driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, *sqlx.DB, func(), error) {
	if strings.EqualFold(cfg.Driver, "memory") {
		log.Warn().Msg("Using the in-memory store; data is lost on exit")
		return memory.NewStore(), nil, func() {}, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("Connected to database")
	return postgres.NewStore(db), db, func() { db.Close() }, nil
}
