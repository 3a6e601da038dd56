package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/internal/repository/memory"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

type queuedRecorder struct {
	count int
}

func (r *queuedRecorder) PatientQueued(ctx context.Context, patient *model.Patient, entry *model.WaitingListEntry) {
	r.count++
}

func strPtr(s string) *string { return &s }

func TestIntake(t *testing.T) {
	store := memory.NewStore()
	rec := &queuedRecorder{}
	changes := 0
	svc := NewService(store, rec, func() { changes++ })
	ctx := context.Background()

	intake, err := svc.Intake(ctx, &model.CreatePatientRequest{
		Name:      "  Maria da Silva ",
		Phone:     "81 99999-0000",
		BirthDate: "1970-05-20",
		City:      "Recife",
		EntryDate: "2025-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria da Silva", intake.Patient.Name)
	assert.Equal(t, "1970-05-20", intake.Patient.BirthDate.String())
	require.NotNil(t, intake.Entry)
	assert.Equal(t, intake.Patient.ID, intake.Entry.PatientID)
	assert.Equal(t, "2025-02-01", intake.Entry.EntryDate.String())
	assert.Equal(t, model.WaitingListStatusWaiting, intake.Entry.Status)

	var types []string
	for _, e := range store.Events() {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{model.EventPatientRegistered, model.EventWaitingListEnqueued}, types)
	assert.Equal(t, 1, rec.count)
	assert.Equal(t, 1, changes)
}

func TestIntake_DefaultsEntryDateToToday(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	intake, err := svc.Intake(context.Background(), &model.CreatePatientRequest{Name: "João"})
	require.NoError(t, err)
	assert.Equal(t, model.Today(), intake.Entry.EntryDate)
	assert.Nil(t, intake.Patient.BirthDate)
}

func TestIntake_Validation(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.Intake(ctx, &model.CreatePatientRequest{Name: "   "})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))

	_, err = svc.Intake(ctx, &model.CreatePatientRequest{Name: "Maria", BirthDate: "20/05/1970"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))

	list, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	ctx := context.Background()
	intake, err := svc.Intake(ctx, &model.CreatePatientRequest{Name: "Maria", City: "Recife", Notes: "x"})
	require.NoError(t, err)
	id := intake.Patient.ID

	updated, err := svc.Update(ctx, id, &model.UpdatePatientRequest{City: strPtr("Olinda"), BirthDate: strPtr("1980-01-02")})
	require.NoError(t, err)
	assert.Equal(t, "Olinda", updated.City)
	assert.Equal(t, "Maria", updated.Name)
	assert.Equal(t, "x", updated.Notes)
	assert.Equal(t, "1980-01-02", updated.BirthDate.String())

	// An empty birth date clears it.
	updated, err = svc.Update(ctx, id, &model.UpdatePatientRequest{BirthDate: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.BirthDate)

	_, err = svc.Update(ctx, id, &model.UpdatePatientRequest{Name: strPtr(" ")})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalid))

	_, err = svc.Update(ctx, uuid.New(), &model.UpdatePatientRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestList_Filters(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	ctx := context.Background()
	for _, req := range []*model.CreatePatientRequest{
		{Name: "Maria", City: "Recife"},
		{Name: "Mariana", City: "Olinda"},
		{Name: "José", City: "Recife"},
	} {
		_, err := svc.Intake(ctx, req)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, &model.PatientFilters{Search: "mari"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, &model.PatientFilters{Search: "mari", City: "Recife"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Maria", list[0].Name)
}

func TestDelete_ReleasesRoomAndCascades(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	intake, err := svc.Intake(ctx, &model.CreatePatientRequest{Name: "Maria"})
	require.NoError(t, err)
	id := intake.Patient.ID

	room := &model.Room{Number: "A1", Type: "single", Status: model.RoomStatusFree}
	require.NoError(t, store.Rooms().Create(ctx, room))
	require.NoError(t, store.Rooms().Occupy(ctx, room.ID, id, model.Today()))
	roomID := room.ID
	require.NoError(t, store.Stays().Create(ctx, &model.Stay{PatientID: id, RoomID: &roomID, EntryDate: model.Today()}))

	require.NoError(t, svc.Delete(ctx, id))

	got, err := store.Rooms().Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusFree, got.Status)
	assert.Nil(t, got.OccupantID)

	_, err = store.WaitingList().FindByPatient(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	stays, err := store.Stays().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, stays)

	err = svc.Delete(ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
