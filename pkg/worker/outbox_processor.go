package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/pkg/messaging"
	"github.com/casacaminho/shelter-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func (c OutboxProcessorConfig) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.New("batch size must be greater than 0")
	case c.PollInterval <= 0:
		return errors.New("poll interval must be greater than 0")
	case c.RetryAttempts <= 0:
		return errors.New("retry attempts must be greater than 0")
	case c.RetryDelay <= 0:
		return errors.New("retry delay must be greater than 0")
	}
	return nil
}

// OutboxProcessor relays pending outbox events to the broker. Each batch is
// claimed with row locks inside one transaction, so several relays can run at once.
type OutboxProcessor struct {
	store   repository.Store
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	store repository.Store,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OutboxProcessor{
		store:   store,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info().Dur("poll_interval", p.config.PollInterval).Msg("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error().Err(err).Msg("Failed to process events")
			}
		}
	}
}

// ProcessBatch relays up to BatchSize events and returns how many were published.
// An event that still fails after the retries is marked failed and skipped.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	published := 0
	err := p.store.WithinTx(ctx, func(tx repository.Store) error {
		published = 0
		events, err := tx.Outbox().GetPendingEventsWithLock(ctx, p.config.BatchSize)
		if err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
			return fmt.Errorf("failed to get pending events: %w", err)
		}
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

		for _, event := range events {
			ok, err := p.processEvent(ctx, tx, event)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		return nil
	})
	return published, err
}

// processEvent reports whether the event was published. A returned error means the
// status could not be stored and the batch must roll back.
func (p *OutboxProcessor) processEvent(ctx context.Context, tx repository.Store, event *model.OutboxEvent) (bool, error) {
	msg := messaging.Message{
		ID:         event.ID.String(),
		Type:       event.EventType,
		Payload:    event.Payload,
		OccurredAt: event.CreatedAt,
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.config.RetryDelay), uint64(p.config.RetryAttempts-1)),
		ctx,
	)
	pubErr := backoff.Retry(func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, messaging.Channel(event.EventType), msg)
	}, policy)

	if pubErr != nil {
		p.metrics.OutboxEventsFailed.Inc()
		p.logger.Error().
			Err(pubErr).
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			Int("attempts", attempt).
			Msg("Failed to publish event")

		errStr := pubErr.Error()
		if err := tx.Outbox().UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr); err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("update_event_status", "error").Inc()
			return false, fmt.Errorf("failed to mark event %s failed: %w", event.ID, err)
		}
		return false, nil
	}

	if err := tx.Outbox().UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("update_event_status", "error").Inc()
		return false, fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("update_event_status", "success").Inc()
	p.metrics.OutboxEventsProcessed.Inc()
	return true, nil
}
