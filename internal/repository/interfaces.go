package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrRoomNotFree = errors.New("room is not free")
	ErrDuplicate   = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	RoomRepository interface {
		Create(ctx context.Context, room *model.Room) error
		Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
		Update(ctx context.Context, room *model.Room) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.RoomFilters) ([]*model.Room, error)
		// GetForUpdate reads a room and holds its row lock until the transaction ends.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Room, error)
		// FindFreeForUpdate locks the free room with the smallest number, skipping rows
		// locked by concurrent transactions. ErrNotFound when none is available.
		FindFreeForUpdate(ctx context.Context) (*model.Room, error)
		// Occupy flips a free room to occupied. ErrRoomNotFree when the room was taken meanwhile.
		Occupy(ctx context.Context, roomID, patientID uuid.UUID, since model.Date) error
		Release(ctx context.Context, roomID uuid.UUID) error
		ListByOccupant(ctx context.Context, patientID uuid.UUID) ([]*model.Room, error)
		Counts(ctx context.Context) (model.RoomCounts, error)
	}

	WaitingListRepository interface {
		Create(ctx context.Context, entry *model.WaitingListEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.WaitingListEntry, error)
		List(ctx context.Context, filters *model.WaitingListFilters) ([]*model.WaitingListEntry, error)
		// FindByPatient returns the patient's oldest entry.
		FindByPatient(ctx context.Context, patientID uuid.UUID) (*model.WaitingListEntry, error)
		// Head returns the entry with the earliest entry date.
		Head(ctx context.Context) (*model.WaitingListEntry, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitingListStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int64, error)
	}

	StayRepository interface {
		Create(ctx context.Context, stay *model.Stay) error
		Get(ctx context.Context, id uuid.UUID) (*model.Stay, error)
		List(ctx context.Context, filters *model.StayFilters) ([]*model.Stay, error)
		End(ctx context.Context, id uuid.UUID, endedAt time.Time) error
		FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*model.Stay, error)
		FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.Stay, error)
		// Upcoming lists active stays entering on or after from, earliest first.
		Upcoming(ctx context.Context, from model.Date, limit int) ([]*model.Stay, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
		List(ctx context.Context) ([]*model.User, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock must run inside WithinTx so the row locks outlive the select.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		// Cleanup deletes processed events relayed before the cutoff.
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	StatsRepository interface {
		PendingCount(ctx context.Context) (int, error)
		// CountRequests counts patients registered in the range.
		CountRequests(ctx context.Context, r model.AnalyticsRange) (int, error)
		CountAdmissions(ctx context.Context, r model.AnalyticsRange) (int, error)
		CountDischarges(ctx context.Context, r model.AnalyticsRange) (int, error)
		StayRows(ctx context.Context, r model.AnalyticsRange) ([]*model.AnalyticsRow, error)
	}

	// Store groups the repositories over one connection scope. Inside WithinTx the
	// store handed to fn shares a single transaction; fn returning an error rolls it back.
	Store interface {
		Patients() PatientRepository
		Rooms() RoomRepository
		WaitingList() WaitingListRepository
		Stays() StayRepository
		Users() UserRepository
		Outbox() OutboxRepository
		Stats() StatsRepository
		WithinTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
	}
)
