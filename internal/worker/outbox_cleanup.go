package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/casacaminho/shelter-api/internal/repository"
)

// OutboxCleanupWorker periodically deletes relayed outbox events past their retention.
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, cleanupInterval time.Duration, logger zerolog.Logger) (*OutboxCleanupWorker, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if cleanupInterval <= 0 {
		return nil, fmt.Errorf("cleanup interval must be positive")
	}
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		now:             time.Now,
	}, nil
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Failed to clean up outbox events")
			}
		}
	}
}

// Cleanup runs one pass and returns the number of deleted events.
func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox events: %w", err)
	}
	if rows > 0 {
		w.logger.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("Cleaned up relayed outbox events")
	}
	return rows, nil
}
