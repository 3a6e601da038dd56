package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
)

func TestNewOutboxCleanupWorker_Validation(t *testing.T) {
	store := memory.NewStore()
	_, err := NewOutboxCleanupWorker(store.Outbox(), 0, time.Hour, zerolog.Nop())
	assert.Error(t, err)
	_, err = NewOutboxCleanupWorker(store.Outbox(), time.Hour, 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestCleanup_DeletesOnlyRelayedEvents(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var created []model.OutboxEvent
	for i := 0; i < 3; i++ {
		evt, err := model.NewOutboxEvent(model.EventStayOpened, map[string]int{"n": i})
		require.NoError(t, err)
		require.NoError(t, store.Outbox().Create(ctx, evt))
		created = append(created, *evt)
	}
	require.NoError(t, store.Outbox().UpdateStatus(ctx, created[0].ID, model.OutboxStatusProcessed, nil))
	msg := "broker down"
	require.NoError(t, store.Outbox().UpdateStatus(ctx, created[1].ID, model.OutboxStatusFailed, &msg))

	w, err := NewOutboxCleanupWorker(store.Outbox(), time.Hour, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	// Nothing is old enough yet.
	n, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events := store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, created[1].ID, events[0].ID)
	assert.Equal(t, created[2].ID, events[1].ID)
}
