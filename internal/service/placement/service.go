// Package placement turns placement requests into stays. It owns every change to a
// room's occupancy: allocation, targeted occupation, release and ending a stay.
package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/repository"
	"github.com/casacaminho/shelter-api/internal/service/waitinglist"
	apperrors "github.com/casacaminho/shelter-api/pkg/errors"
	"github.com/casacaminho/shelter-api/pkg/metrics"
)

// maxSelectAttempts bounds how often selection restarts after losing a room to a
// concurrent transaction.
const maxSelectAttempts = 3

const (
	outcomeAllocated = "allocated"
	outcomeEnqueued  = "enqueued"
)

type PlacementService interface {
	RequestPlacement(ctx context.Context, req *model.PlacementRequest) (*model.PlacementResult, error)
	AllocateFromWaitingList(ctx context.Context, entryID uuid.UUID, req *model.AllocateRequest) (*model.PlacementResult, error)
	AllocateNext(ctx context.Context, req *model.AllocateRequest) (*model.PlacementResult, error)
	OccupyRoom(ctx context.Context, roomID uuid.UUID, req *model.OccupyRoomRequest) (*model.PlacementResult, error)
	ReleaseRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error)
	EndStay(ctx context.Context, stayID uuid.UUID) (*model.Stay, error)
}

// Notifier receives committed outcomes. Implementations must not block for long
// and must swallow their own errors.
type Notifier interface {
	RoomAllocated(ctx context.Context, patient *model.Patient, room *model.Room, entry model.Date)
	PatientQueued(ctx context.Context, patient *model.Patient, entry *model.WaitingListEntry)
}

type Service struct {
	store    repository.Store
	notifier Notifier
	metrics  *metrics.Metrics
	onChange func()
	now      func() time.Time
}

func NewService(store repository.Store, notifier Notifier, m *metrics.Metrics, onChange func()) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		onChange: onChange,
		now:      time.Now,
	}
}

// outcome is what a transaction decided; side effects run from it after commit.
type outcome struct {
	patient *model.Patient
	room    *model.Room
	stay    *model.Stay
	entry   *model.WaitingListEntry
	queued  bool // entry was created by this call
}

func (o *outcome) result() *model.PlacementResult {
	if o.stay != nil {
		return &model.PlacementResult{
			Allocated:  true,
			RoomID:     &o.room.ID,
			RoomNumber: o.room.Number,
			StayID:     &o.stay.ID,
		}
	}
	res := &model.PlacementResult{}
	if o.entry != nil {
		res.WaitingListEntryID = &o.entry.ID
	}
	return res
}

func parsePlacement(req *model.PlacementRequest) (model.Placement, error) {
	var p model.Placement
	if req.PatientID == "" {
		return p, apperrors.Invalid("patient_id is required", nil)
	}
	id, err := uuid.Parse(req.PatientID)
	if err != nil {
		return p, apperrors.Invalid("patient_id must be a valid UUID", err)
	}
	if req.EntryDate == "" {
		return p, apperrors.Invalid("entry_date is required", nil)
	}
	entry, err := model.ParseDate(req.EntryDate)
	if err != nil {
		return p, apperrors.Invalid(err.Error(), err)
	}
	if req.DurationDays < 0 {
		return p, apperrors.Invalid("duration_days must not be negative", nil)
	}
	p = model.Placement{
		PatientID:     id,
		EntryDate:     entry,
		DurationDays:  req.DurationDays,
		Reason:        req.Reason,
		CompanionName: req.CompanionName,
	}
	if req.PreferredRoomID != "" {
		roomID, err := uuid.Parse(req.PreferredRoomID)
		if err != nil {
			return p, apperrors.Invalid("preferred_room_id must be a valid UUID", err)
		}
		p.PreferredRoomID = &roomID
	}
	return p, nil
}

// RequestPlacement houses the patient in the preferred room when it is free, else
// in the free room with the smallest number. With no free room the patient is
// queued instead. Either way the change commits as one transaction.
func (s *Service) RequestPlacement(ctx context.Context, req *model.PlacementRequest) (*model.PlacementResult, error) {
	p, err := parsePlacement(req)
	if err != nil {
		return nil, err
	}

	var out outcome
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		out = outcome{}
		patient, err := getPatient(ctx, tx, p.PatientID)
		if err != nil {
			return err
		}
		out.patient = patient
		if err := waitinglist.EnsureNotHoused(ctx, tx, patient.ID); err != nil {
			return err
		}

		allocated, err := s.allocate(ctx, tx, &out, p)
		if err != nil || allocated {
			return err
		}

		out.entry, out.queued, err = waitinglist.EnqueueTx(ctx, tx, patient, p.EntryDate, model.WaitingListStatusWaiting)
		return err
	})
	if err != nil {
		return nil, wrap(err)
	}

	s.committed(ctx, &out)
	return out.result(), nil
}

// AllocateFromWaitingList tries to house the patient of one entry. The entry is left
// untouched when no room is free.
func (s *Service) AllocateFromWaitingList(ctx context.Context, entryID uuid.UUID, req *model.AllocateRequest) (*model.PlacementResult, error) {
	var out outcome
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		out = outcome{}
		entry, err := tx.WaitingList().Get(ctx, entryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("waiting list entry", err)
			}
			return err
		}
		return s.allocateEntry(ctx, tx, &out, entry, req)
	})
	if err != nil {
		return nil, wrap(err)
	}

	s.committed(ctx, &out)
	return out.result(), nil
}

// AllocateNext runs AllocateFromWaitingList on the head of the list. An empty list
// yields an unallocated result with no entry.
func (s *Service) AllocateNext(ctx context.Context, req *model.AllocateRequest) (*model.PlacementResult, error) {
	var out outcome
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		out = outcome{}
		entry, err := tx.WaitingList().Head(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		return s.allocateEntry(ctx, tx, &out, entry, req)
	})
	if err != nil {
		return nil, wrap(err)
	}

	s.committed(ctx, &out)
	return out.result(), nil
}

func (s *Service) allocateEntry(ctx context.Context, tx repository.Store, out *outcome, entry *model.WaitingListEntry, req *model.AllocateRequest) error {
	patient, err := getPatient(ctx, tx, entry.PatientID)
	if err != nil {
		return err
	}
	out.patient = patient
	out.entry = entry
	if err := waitinglist.EnsureNotHoused(ctx, tx, patient.ID); err != nil {
		return err
	}

	// A patient queued for a past date enters today.
	p := model.Placement{PatientID: patient.ID, EntryDate: entry.EntryDate}
	if today := model.NewDate(s.now()); p.EntryDate.Before(today.Time) {
		p.EntryDate = today
	}
	if req != nil {
		if req.DurationDays < 0 {
			return apperrors.Invalid("duration_days must not be negative", nil)
		}
		p.DurationDays = req.DurationDays
		p.Reason = req.Reason
		p.CompanionName = req.CompanionName
	}

	_, err = s.allocate(ctx, tx, out, p)
	return err
}

// OccupyRoom houses the patient in exactly this room, with no fallback.
func (s *Service) OccupyRoom(ctx context.Context, roomID uuid.UUID, req *model.OccupyRoomRequest) (*model.PlacementResult, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.Invalid("patient_id must be a valid UUID", err)
	}
	p := model.Placement{
		PatientID:     patientID,
		EntryDate:     model.NewDate(s.now()),
		DurationDays:  req.DurationDays,
		Reason:        req.Reason,
		CompanionName: req.CompanionName,
	}
	if req.EntryDate != "" {
		if p.EntryDate, err = model.ParseDate(req.EntryDate); err != nil {
			return nil, apperrors.Invalid(err.Error(), err)
		}
	}
	if p.DurationDays < 0 {
		return nil, apperrors.Invalid("duration_days must not be negative", nil)
	}

	var out outcome
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		out = outcome{}
		room, err := getRoomForUpdate(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != model.RoomStatusFree {
			return apperrors.Conflict(fmt.Sprintf("room %s is not free", room.Number), nil)
		}
		patient, err := getPatient(ctx, tx, patientID)
		if err != nil {
			return err
		}
		out.patient = patient
		if err := waitinglist.EnsureNotHoused(ctx, tx, patient.ID); err != nil {
			return err
		}
		err = s.house(ctx, tx, &out, room, p)
		if errors.Is(err, repository.ErrRoomNotFree) {
			return apperrors.Conflict(fmt.Sprintf("room %s is not free", room.Number), err)
		}
		return err
	})
	if err != nil {
		return nil, wrap(err)
	}

	s.committed(ctx, &out)
	return out.result(), nil
}

// allocate selects a room and houses out.patient in it. It reports false, with no
// error, when no room is free.
func (s *Service) allocate(ctx context.Context, tx repository.Store, out *outcome, p model.Placement) (bool, error) {
	preferred := p.PreferredRoomID
	for attempt := 1; attempt <= maxSelectAttempts; attempt++ {
		room, err := selectRoom(ctx, tx, preferred)
		if err != nil {
			return false, err
		}
		if room == nil {
			return false, nil
		}

		err = s.house(ctx, tx, out, room, p)
		if errors.Is(err, repository.ErrRoomNotFree) {
			log.Debug().
				Str("room_id", room.ID.String()).
				Int("attempt", attempt).
				Msg("Room taken concurrently, selecting again")
			preferred = nil
			continue
		}
		return err == nil, err
	}
	return false, nil
}

// selectRoom returns the preferred room when it is free, otherwise the free room with
// the smallest number, or nil when none is free.
func selectRoom(ctx context.Context, tx repository.Store, preferred *uuid.UUID) (*model.Room, error) {
	if preferred != nil {
		room, err := getRoomForUpdate(ctx, tx, *preferred)
		if err != nil {
			return nil, err
		}
		if room.Status == model.RoomStatusFree {
			return room, nil
		}
		log.Info().
			Str("room_id", room.ID.String()).
			Str("status", string(room.Status)).
			Msg("Preferred room unavailable, falling back to automatic selection")
	}

	room, err := tx.Rooms().FindFreeForUpdate(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// house occupies room, opens the stay and clears the patient's waiting entries.
func (s *Service) house(ctx context.Context, tx repository.Store, out *outcome, room *model.Room, p model.Placement) error {
	patient := out.patient
	if err := tx.Rooms().Occupy(ctx, room.ID, patient.ID, p.EntryDate); err != nil {
		// A concurrent placement for the same patient holds another room.
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("patient already occupies a room", err)
		}
		return err
	}

	roomID := room.ID
	stay := &model.Stay{
		Base:          model.NewBase(s.now()),
		PatientID:     patient.ID,
		RoomID:        &roomID,
		RoomNumber:    room.Number,
		PatientName:   patient.Name,
		PatientPhone:  patient.Phone,
		CompanionName: p.CompanionName,
		EntryDate:     p.EntryDate,
		DurationDays:  p.DurationDays,
		Reason:        p.Reason,
		Status:        model.StayStatusActive,
	}
	if err := tx.Stays().Create(ctx, stay); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("patient or room already has an active stay", err)
		}
		return err
	}
	if _, err := tx.WaitingList().DeleteByPatient(ctx, patient.ID); err != nil {
		return err
	}
	if err := repository.RecordEvent(ctx, tx, model.EventStayOpened, model.StayEvent{
		StayID:     stay.ID,
		PatientID:  patient.ID,
		RoomID:     &roomID,
		RoomNumber: room.Number,
		EntryDate:  stay.EntryDate,
	}); err != nil {
		return err
	}

	occupant := patient.ID
	since := p.EntryDate
	room.Status = model.RoomStatusOccupied
	room.OccupantID = &occupant
	room.OccupiedSince = &since
	out.room = room
	out.stay = stay
	return nil
}

// ReleaseRoom frees the room and ends the stay in it. Releasing a free room is a
// no-op; a room under maintenance goes back to free.
func (s *Service) ReleaseRoom(ctx context.Context, roomID uuid.UUID) (*model.Room, error) {
	var (
		room    *model.Room
		changed bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		room, err = getRoomForUpdate(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.Status == model.RoomStatusFree {
			return nil
		}

		event := model.RoomEvent{RoomID: room.ID, RoomNumber: room.Number, PatientID: room.OccupantID}
		stay, err := tx.Stays().FindActiveByRoom(ctx, room.ID)
		switch {
		case err == nil:
			if err := s.endStay(ctx, tx, stay); err != nil {
				return err
			}
			event.StayID = &stay.ID
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := tx.Rooms().Release(ctx, room.ID); err != nil {
			return err
		}
		if err := repository.RecordEvent(ctx, tx, model.EventRoomReleased, event); err != nil {
			return err
		}
		room.Status = model.RoomStatusFree
		room.OccupantID = nil
		room.OccupiedSince = nil
		changed = true
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}

	if changed {
		log.Info().Str("room_id", room.ID.String()).Msg("Room released")
		s.changed()
	}
	return room, nil
}

// EndStay ends an active stay and frees its room. Ending an ended stay returns it
// unchanged.
func (s *Service) EndStay(ctx context.Context, stayID uuid.UUID) (*model.Stay, error) {
	var (
		stay    *model.Stay
		changed bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		stay, err = tx.Stays().Get(ctx, stayID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("stay", err)
			}
			return err
		}
		if stay.Status == model.StayStatusEnded {
			return nil
		}
		if err := s.endStay(ctx, tx, stay); err != nil {
			return err
		}

		if stay.RoomID != nil {
			room, err := tx.Rooms().GetForUpdate(ctx, *stay.RoomID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
			case err != nil:
				return err
			case room.OccupantID != nil && *room.OccupantID == stay.PatientID:
				if err := tx.Rooms().Release(ctx, room.ID); err != nil {
					return err
				}
				if err := repository.RecordEvent(ctx, tx, model.EventRoomReleased, model.RoomEvent{
					RoomID:     room.ID,
					RoomNumber: room.Number,
					StayID:     &stay.ID,
					PatientID:  &stay.PatientID,
				}); err != nil {
					return err
				}
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}

	if changed {
		s.changed()
	}
	return stay, nil
}

func (s *Service) endStay(ctx context.Context, tx repository.Store, stay *model.Stay) error {
	endedAt := s.now()
	if err := tx.Stays().End(ctx, stay.ID, endedAt); err != nil {
		return err
	}
	stay.Status = model.StayStatusEnded
	stay.EndedAt = &endedAt
	return repository.RecordEvent(ctx, tx, model.EventStayEnded, model.StayEvent{
		StayID:     stay.ID,
		PatientID:  stay.PatientID,
		RoomID:     stay.RoomID,
		RoomNumber: stay.RoomNumber,
		EntryDate:  stay.EntryDate,
	})
}

// committed runs the side effects of a committed outcome.
func (s *Service) committed(ctx context.Context, out *outcome) {
	switch {
	case out.stay != nil:
		s.count(outcomeAllocated)
		log.Info().
			Str("patient_id", out.patient.ID.String()).
			Str("room", out.room.Number).
			Str("stay_id", out.stay.ID.String()).
			Msg("Patient allocated")
		s.changed()
		if s.notifier != nil {
			s.notifier.RoomAllocated(ctx, out.patient, out.room, out.stay.EntryDate)
		}
	case out.queued:
		s.count(outcomeEnqueued)
		log.Info().
			Str("patient_id", out.patient.ID.String()).
			Str("entry_id", out.entry.ID.String()).
			Msg("No free room, patient queued")
		s.changed()
		if s.notifier != nil {
			s.notifier.PatientQueued(ctx, out.patient, out.entry)
		}
	}
}

func (s *Service) count(label string) {
	if s.metrics != nil {
		s.metrics.Placements.WithLabelValues(label).Inc()
	}
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func getPatient(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Patient, error) {
	patient, err := tx.Patients().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, err
	}
	return patient, nil
}

func getRoomForUpdate(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Room, error) {
	room, err := tx.Rooms().GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("room", err)
		}
		return nil, err
	}
	return room, nil
}

// wrap passes AppErrors through; anything else is an allocation failure the
// client only sees as a 500.
func wrap(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	log.Error().Err(err).Msg("Placement transaction failed")
	return apperrors.Internal(err)
}
