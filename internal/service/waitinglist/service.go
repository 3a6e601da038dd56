package waitinglist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
)

type WaitingListService interface {
	List(ctx context.Context, filters *model.WaitingListFilters) ([]*model.WaitingListEntry, error)
	Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.WaitingListEntry, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID) (*model.WaitingListEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier is the staff alert sent when a patient joins the list.
type Notifier interface {
	PatientQueued(ctx context.Context, patient *model.Patient, entry *model.WaitingListEntry)
}

type Service struct {
	store    repository.Store
	notifier Notifier
	onChange func()
}

func NewService(store repository.Store, notifier Notifier, onChange func()) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		onChange: onChange,
	}
}

func (s *Service) List(ctx context.Context, filters *model.WaitingListFilters) ([]*model.WaitingListEntry, error) {
	if filters == nil {
		filters = &model.WaitingListFilters{}
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.Invalid(fmt.Sprintf("invalid status %q", filters.Status), nil)
	}
	entries, err := s.store.WaitingList().List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// Enqueue puts a patient on the list. A patient already queued gets the existing
// entry back unchanged.
func (s *Service) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.WaitingListEntry, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.Invalid("patient_id must be a valid UUID", err)
	}
	if req.EntryDate == "" {
		return nil, apperrors.Invalid("entry_date is required", nil)
	}
	entryDate, err := model.ParseDate(req.EntryDate)
	if err != nil {
		return nil, apperrors.Invalid(err.Error(), err)
	}
	status := model.WaitingListStatusWaiting
	if req.Status != "" {
		status = model.WaitingListStatus(req.Status)
		if !status.Valid() {
			return nil, apperrors.Invalid(fmt.Sprintf("invalid status %q", req.Status), nil)
		}
	}

	var (
		patient *model.Patient
		entry   *model.WaitingListEntry
		created bool
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		patient, err = tx.Patients().Get(ctx, patientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("patient", err)
			}
			return err
		}
		if err := EnsureNotHoused(ctx, tx, patientID); err != nil {
			return err
		}
		entry, created, err = EnqueueTx(ctx, tx, patient, entryDate, status)
		return err
	})
	if err != nil {
		return nil, wrap(err)
	}

	if created {
		s.changed()
		if s.notifier != nil {
			s.notifier.PatientQueued(ctx, patient, entry)
		}
	}
	return entry, nil
}

// AdvanceStatus moves an entry one approval step forward; Approved stays Approved.
func (s *Service) AdvanceStatus(ctx context.Context, id uuid.UUID) (*model.WaitingListEntry, error) {
	var entry *model.WaitingListEntry
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		entry, err = tx.WaitingList().Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("waiting list entry", err)
			}
			return err
		}
		next := entry.Status.Next()
		if next == entry.Status {
			return nil
		}
		if err := tx.WaitingList().UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		entry.Status = next
		entry.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	s.changed()
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.WaitingList().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("waiting list entry", err)
		}
		return apperrors.Internal(err)
	}
	s.changed()
	return nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// EnqueueTx queues patient inside tx. It returns the patient's existing entry when
// there is one, otherwise creates it and records the enqueued event.
func EnqueueTx(ctx context.Context, tx repository.Store, patient *model.Patient, date model.Date, status model.WaitingListStatus) (*model.WaitingListEntry, bool, error) {
	existing, err := tx.WaitingList().FindByPatient(ctx, patient.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	entry := &model.WaitingListEntry{
		Base:         model.NewBase(time.Now()),
		PatientID:    patient.ID,
		EntryDate:    date,
		Status:       status,
		PatientName:  patient.Name,
		PatientPhone: patient.Phone,
	}
	if err := tx.WaitingList().Create(ctx, entry); err != nil {
		return nil, false, err
	}
	if err := repository.RecordEvent(ctx, tx, model.EventWaitingListEnqueued, model.WaitingListEvent{
		EntryID:   entry.ID,
		PatientID: patient.ID,
		EntryDate: entry.EntryDate,
		Status:    entry.Status,
	}); err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// EnsureNotHoused fails with a conflict when the patient has an active stay or
// occupies a room.
func EnsureNotHoused(ctx context.Context, tx repository.Store, patientID uuid.UUID) error {
	_, err := tx.Stays().FindActiveByPatient(ctx, patientID)
	switch {
	case err == nil:
		return apperrors.Conflict("patient already has an active stay", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	rooms, err := tx.Rooms().ListByOccupant(ctx, patientID)
	if err != nil {
		return err
	}
	if len(rooms) > 0 {
		return apperrors.Conflict(fmt.Sprintf("patient already occupies room %s", rooms[0].Number), nil)
	}
	return nil
}

// wrap passes AppErrors through and hides everything else behind a 500.
func wrap(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Internal(err)
}
