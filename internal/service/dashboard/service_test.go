package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
)

func TestSummary(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewService(store, time.Minute)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	var rooms []*model.Room
	for _, n := range []string{"A1", "A2", "A3"} {
		r := &model.Room{Number: n, Type: "single", Status: model.RoomStatusFree}
		require.NoError(t, store.Rooms().Create(ctx, r))
		rooms = append(rooms, r)
	}

	// Stays entering before, on and after today; only the last room stays occupied.
	for i, entryDate := range []string{"2025-03-01", "2025-03-10", "2025-03-15"} {
		p := &model.Patient{Name: entryDate}
		require.NoError(t, store.Patients().Create(ctx, p))
		d, err := model.ParseDate(entryDate)
		require.NoError(t, err)
		roomID := rooms[i].ID
		require.NoError(t, store.Rooms().Occupy(ctx, roomID, p.ID, d))
		require.NoError(t, store.Stays().Create(ctx, &model.Stay{PatientID: p.ID, RoomID: &roomID, EntryDate: d}))
		if i == 2 {
			break
		}
		require.NoError(t, store.Rooms().Release(ctx, roomID))
	}
	// One pending entry and one approved entry.
	q := &model.Patient{Name: "queued"}
	require.NoError(t, store.Patients().Create(ctx, q))
	require.NoError(t, store.WaitingList().Create(ctx, &model.WaitingListEntry{PatientID: q.ID, EntryDate: model.Today()}))
	approved := &model.WaitingListEntry{PatientID: q.ID, EntryDate: model.Today(), Status: model.WaitingListStatusApproved}
	require.NoError(t, store.WaitingList().Create(ctx, approved))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Rooms, 3)
	assert.Equal(t, model.DashboardStats{OccupancyPct: 33.3, FreeBeds: 2, Pending: 1, Guests: 1}, summary.Stats)

	require.Len(t, summary.UpcomingArrivals, 2)
	assert.Equal(t, "2025-03-10", summary.UpcomingArrivals[0].EntryDate.String())
	assert.Equal(t, "2025-03-15", summary.UpcomingArrivals[1].EntryDate.String())
}

func TestSummary_CachedUntilInvalidated(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewService(store, time.Minute)

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.Rooms)

	require.NoError(t, store.Rooms().Create(ctx, &model.Room{Base: model.Base{ID: uuid.New()}, Number: "A1", Type: "single", Status: model.RoomStatusFree}))

	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Same(t, first, cached)

	svc.Invalidate()
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Rooms, 1)
	assert.Equal(t, 1, fresh.Stats.FreeBeds)
}
