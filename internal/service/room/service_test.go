package room

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()

	room, err := svc.Create(ctx, &model.CreateRoomRequest{Number: " A1 ", Type: "single"})
	require.NoError(t, err)
	assert.Equal(t, "A1", room.Number)
	assert.Equal(t, model.RoomStatusFree, room.Status)

	room, err = svc.Create(ctx, &model.CreateRoomRequest{Number: "A2", Type: "double", Status: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusMaintenance, room.Status)

	tests := []struct {
		name string
		req  *model.CreateRoomRequest
		code apperrors.ErrorCode
	}{
		{"missing number", &model.CreateRoomRequest{Type: "single"}, apperrors.ErrInvalid},
		{"missing type", &model.CreateRoomRequest{Number: "B1"}, apperrors.ErrInvalid},
		{"occupied status", &model.CreateRoomRequest{Number: "B1", Type: "single", Status: "occupied"}, apperrors.ErrInvalid},
		{"unknown status", &model.CreateRoomRequest{Number: "B1", Type: "single", Status: "closed"}, apperrors.ErrInvalid},
		{"duplicate number", &model.CreateRoomRequest{Number: "A1", Type: "single"}, apperrors.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestListFree_OrderedByNumber(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()
	for _, n := range []string{"C1", "A1", "B1"} {
		_, err := svc.Create(ctx, &model.CreateRoomRequest{Number: n, Type: "single"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "A0", Type: "single", Status: "maintenance"})
	require.NoError(t, err)

	free, err := svc.ListFree(ctx)
	require.NoError(t, err)
	var numbers []string
	for _, r := range free {
		numbers = append(numbers, r.Number)
	}
	assert.Equal(t, []string{"A1", "B1", "C1"}, numbers)

	_, err = svc.List(ctx, &model.RoomFilters{Status: "bogus"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))
}

func TestUpdate_StatusRules(t *testing.T) {
	store := memory.NewStore()
	changes := 0
	svc := NewService(store, func() { changes++ })
	ctx := context.Background()

	room, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "A1", Type: "single"})
	require.NoError(t, err)

	room, err = svc.Update(ctx, room.ID, &model.UpdateRoomRequest{Status: strPtr("maintenance"), Type: strPtr("double")})
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusMaintenance, room.Status)
	assert.Equal(t, "double", room.Type)

	_, err = svc.Update(ctx, room.ID, &model.UpdateRoomRequest{Status: strPtr("occupied")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))

	room, err = svc.Update(ctx, room.ID, &model.UpdateRoomRequest{Status: strPtr("free")})
	require.NoError(t, err)
	require.NoError(t, store.Rooms().Occupy(ctx, room.ID, uuid.New(), model.Today()))

	_, err = svc.Update(ctx, room.ID, &model.UpdateRoomRequest{Status: strPtr("free")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	// Renaming an occupied room is fine.
	room, err = svc.Update(ctx, room.ID, &model.UpdateRoomRequest{Number: strPtr("A1-bis")})
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusOccupied, room.Status)
	assert.Equal(t, 4, changes)

	_, err = svc.Update(ctx, uuid.New(), &model.UpdateRoomRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestUpdate_DuplicateNumber(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "A1", Type: "single"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "B1", Type: "single"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, &model.UpdateRoomRequest{Number: strPtr("A1")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
}

func TestDelete(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	free, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "A1", Type: "single"})
	require.NoError(t, err)
	busy, err := svc.Create(ctx, &model.CreateRoomRequest{Number: "A2", Type: "single"})
	require.NoError(t, err)
	require.NoError(t, store.Rooms().Occupy(ctx, busy.ID, uuid.New(), model.Today()))

	err = svc.Delete(ctx, busy.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	require.NoError(t, svc.Delete(ctx, free.ID))
	_, err = svc.Get(ctx, free.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
