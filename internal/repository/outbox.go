package repository

import (
	"context"
	"fmt"

	"github.com/casacaminho/shelter-api/internal/model"
)

// RecordEvent writes a domain event to the outbox of the given store, normally a
// transaction scope, so the event commits together with the change it describes.
func RecordEvent(ctx context.Context, tx Store, eventType string, payload interface{}) error {
	event, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return tx.Outbox().Create(ctx, event)
}
