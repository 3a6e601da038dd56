package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
)

type outboxRepository struct {
	s *Store
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.Payload == nil {
		return errors.New("event payload cannot be nil")
	}
	defer r.s.lock()()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Status = model.OutboxStatusPending
	r.s.t.outbox[event.ID] = *event
	r.s.t.stamp(event.ID)
	return nil
}

func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock()()

	events := []*model.OutboxEvent{}
	for _, e := range r.s.t.outbox {
		if e.Status == model.OutboxStatusPending {
			e := e
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return r.s.t.seq[events[i].ID] < r.s.t.seq[events[j].ID]
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	defer r.s.lock()()

	e, ok := r.s.t.outbox[id]
	if !ok {
		return fmt.Errorf("update outbox event: %w", repository.ErrNotFound)
	}
	now := time.Now().UTC()
	e.Status = status
	e.ErrorMessage = errMsg
	e.UpdatedAt = now
	switch status {
	case model.OutboxStatusFailed:
		e.RetryCount++
	case model.OutboxStatusProcessed:
		e.ProcessedAt = &now
	}
	r.s.t.outbox[id] = e
	return nil
}

// Events returns every recorded event in insertion order.
func (s *Store) Events() []model.OutboxEvent {
	defer s.lock()()

	events := make([]model.OutboxEvent, 0, len(s.t.outbox))
	for _, e := range s.t.outbox {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return s.t.seq[events[i].ID] < s.t.seq[events[j].ID]
	})
	return events
}

func (r *outboxRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()

	var n int64
	for id, e := range r.s.t.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.t.outbox, id)
			delete(r.s.t.seq, id)
			n++
		}
	}
	return n, nil
}
